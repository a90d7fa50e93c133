package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/assetdesk/assetdesk/internal/inventory"
	"github.com/assetdesk/assetdesk/internal/model"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User directory commands",
	}

	cmd.AddCommand(newUsersListCmd(app))
	cmd.AddCommand(newUsersCreateCmd(app))

	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.authorizedClient()
			if err != nil {
				return err
			}
			users, err := c.ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No users found."))
				return nil
			}

			data := make([][]string, len(users))
			for i, u := range users {
				data[i] = []string{inventory.Initials(u.Email), u.Name(), u.Email, u.Role, humanize.Time(u.CreatedAt), u.ID}
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(borderStyle).
				Headers("", "NAME", "EMAIL", "ROLE", "CREATED", "ID").
				Rows(data...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					if col == 5 {
						return cellStyle.Inherit(mutedStyle)
					}
					return cellStyle
				})
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}

	return cmd
}

func newUsersCreateCmd(app *App) *cobra.Command {
	var req model.CreateUserRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long:  "Create a user. Without --password the server generates one and it is printed once.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Email == "" {
				return errors.New("missing --email")
			}
			if !model.ValidRole(req.Role) {
				return fmt.Errorf("invalid role %q", req.Role)
			}
			c, err := app.authorizedClient()
			if err != nil {
				return err
			}
			created, err := c.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %s (%s) %s\n", created.Email, created.Role, created.ID)
			if created.RawPassword != "" {
				fmt.Fprintf(out, "password: %s\n", created.RawPassword)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.Role, "role", model.RoleUser, "Role: user, manager or admin")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (default: generated by the server)")

	return cmd
}
