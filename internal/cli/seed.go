package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/model"
)

var (
	firstNames = []string{
		"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael", "Linda",
		"William", "Elizabeth", "David", "Barbara", "Richard", "Susan", "Joseph", "Jessica",
		"Thomas", "Sarah", "Christopher", "Karen", "Daniel", "Lisa", "Matthew", "Betty",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Wilson", "Anderson", "Taylor", "Moore",
		"Jackson", "Martin", "Lee", "Thompson", "White", "Harris", "Clark", "Lewis",
	}
	emailDomains = []string{"example.com", "test.com", "demo.org", "sample.net", "local.dev"}

	// Brand and model lists for the main categories.
	brandModels = map[string]map[string][]string{
		"Laptop": {
			"Lenovo":  {"ThinkPad X1", "ThinkPad T14", "ThinkPad P1", "IdeaPad 5"},
			"Dell":    {"XPS 13", "XPS 15", "Latitude 7420", "Precision 5560"},
			"HP":      {"EliteBook 840", "Spectre x360", "ProBook 450"},
			"MacBook": {"Air M2", "Pro 14", "Pro 16"},
		},
		"Desktop": {
			"Dell":   {"OptiPlex 7090", "Precision 3650", "XPS 8950"},
			"HP":     {"EliteDesk 800", "ProDesk 400", "Z2 Mini"},
			"Lenovo": {"ThinkCentre M75q", "ThinkStation P340"},
		},
		"Monitor": {
			"Dell":    {"UltraSharp U2720Q", "S2721DS", "P2414H"},
			"LG":      {"27UP850", "34WP65C", "32UN650"},
			"Samsung": {"Odyssey G7", "M7 32", "CRG9"},
			"BenQ":    {"SW271", "PD3200U", "GW2480"},
		},
	}
	otherItems = map[string][]string{
		"Mouse":    {"Logitech MX Master 3", "Apple Magic Mouse", "HP X3000"},
		"Keyboard": {"Logitech MX Keys", "Apple Magic Keyboard", "Dell KB216"},
		"Printer":  {"HP LaserJet Pro", "Canon PIXMA", "Brother HL-L2350DW"},
		"Router":   {"Cisco Meraki MR36", "Ubiquiti Dream Machine", "TP-Link Archer"},
		"Phone":    {"Cisco IP Phone 8861", "Yealink T46S", "Poly VVX 411"},
	}

	// Building codes and their room counts.
	buildings = map[string]int{"GD": 99, "AD": 49, "RD": 29, "IT": 24, "HR": 19, "FN": 14, "MK": 34, "SL": 59}
)

// generator produces demo users and items.
type generator struct {
	rnd *rand.Rand
}

func newGenerator(seed uint64) *generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &generator{rnd: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

func (g *generator) pick(list []string) string {
	return list[g.rnd.IntN(len(list))]
}

// pickKey picks from the sorted keys of m so a seed always gives the same
// result.
func pickKey[V any](g *generator, m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return g.pick(keys)
}

func (g *generator) user() model.CreateUserRequest {
	first := g.pick(firstNames)
	last := g.pick(lastNames)
	email := fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), g.rnd.IntN(999)+1, g.pick(emailDomains))
	role := model.RoleUser
	if g.rnd.IntN(4) == 0 {
		role = model.RoleManager
	}
	return model.CreateUserRequest{Email: email, FirstName: first, LastName: last, Role: role}
}

// serial returns a serial number in the form ABC-123-XY9.
func (g *generator) serial() string {
	const upper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	const alnum = upper + "0123456789"
	b := make([]byte, 0, 11)
	for range 3 {
		b = append(b, upper[g.rnd.IntN(len(upper))])
	}
	b = append(b, '-')
	for range 3 {
		b = append(b, byte('0'+g.rnd.IntN(10)))
	}
	b = append(b, '-')
	for range 3 {
		b = append(b, alnum[g.rnd.IntN(len(alnum))])
	}
	return string(b)
}

// location returns a building-room code such as "GD-0042".
func (g *generator) location() string {
	building := pickKey(g, buildings)
	return fmt.Sprintf("%s-%04d", building, g.rnd.IntN(buildings[building])+1)
}

func (g *generator) item(owners []model.User) model.CreateItemRequest {
	var category, name string
	if g.rnd.Float64() < 0.7 {
		category = pickKey(g, brandModels)
		brand := pickKey(g, brandModels[category])
		name = brand + " " + g.pick(brandModels[category][brand])
	} else {
		category = pickKey(g, otherItems)
		name = g.pick(otherItems[category])
	}

	req := model.CreateItemRequest{
		Name:          name,
		Category:      category,
		SerialNumber1: g.serial(),
		OwnerID:       owners[g.rnd.IntN(len(owners))].Email,
		Location:      g.location(),
	}
	if g.rnd.Float64() < 0.3 {
		s := g.serial()
		req.SerialNumber2 = &s
	}
	if g.rnd.Float64() < 0.1 {
		s := g.serial()
		req.SerialNumber3 = &s
	}
	return req
}

func newSeedCmd(app *App) *cobra.Command {
	var users int
	var items int
	var delay time.Duration
	var seed uint64
	var flush bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the backend with demo users and items",
		Example: strings.TrimSpace(`
assetdesk seed --users 10 --items 100
assetdesk seed --flush
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.authorizedClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			log := app.log()

			if flush {
				return flushBackend(ctx, c, log, delay)
			}

			g := newGenerator(seed)
			created, failed := 0, 0
			for i := range users {
				req := g.user()
				if _, err := c.CreateUser(ctx, req); err != nil {
					log.Warn("failed to create user", "email", req.Email, "error", client.Message(err))
					failed++
				} else {
					created++
				}
				if err := pause(ctx, delay, i, users); err != nil {
					return err
				}
			}
			log.Info("users seeded", "created", created, "failed", failed)
			usersCreated := created

			owners, err := c.ListUsers(ctx)
			if err != nil {
				return fmt.Errorf("listing users: %w", err)
			}
			if len(owners) == 0 {
				return errors.New("no users to own the items")
			}

			created, failed = 0, 0
			for i := range items {
				req := g.item(owners)
				if _, err := c.CreateItem(ctx, req); err != nil {
					log.Warn("failed to create item", "item", req.Name, "error", client.Message(err))
					failed++
				} else {
					created++
				}
				if err := pause(ctx, delay, i, items); err != nil {
					return err
				}
			}
			log.Info("items seeded", "created", created, "failed", failed)

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users and %d items\n", usersCreated, created)
			return nil
		},
	}

	cmd.Flags().IntVar(&users, "users", 10, "Number of users to create")
	cmd.Flags().IntVar(&items, "items", 100, "Number of items to create")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Pause between requests")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (default: random)")
	cmd.Flags().BoolVar(&flush, "flush", false, "Delete every item and user instead")

	return cmd
}

// flushBackend deletes every item, then every user the backend lets us
// delete (never the caller's own account).
func flushBackend(ctx context.Context, c *client.Client, log *slog.Logger, delay time.Duration) error {
	items, err := c.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("listing items: %w", err)
	}
	deletedItems := 0
	for i, item := range items {
		if err := c.DeleteItem(ctx, item.ID); err != nil {
			log.Error("failed to delete item", "id", item.ID, "error", err)
		} else {
			deletedItems++
		}
		if err := pause(ctx, delay, i, len(items)); err != nil {
			return err
		}
	}

	users, err := c.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	deletedUsers := 0
	for i, user := range users {
		if err := c.DeleteUser(ctx, user.ID); err != nil {
			log.Warn("user not deleted", "email", user.Email, "error", client.Message(err))
		} else {
			deletedUsers++
		}
		if err := pause(ctx, delay, i, len(users)); err != nil {
			return err
		}
	}

	log.Info("backend flushed", "users", deletedUsers, "items", deletedItems)
	return nil
}

// pause sleeps between requests, not after the last one.
func pause(ctx context.Context, d time.Duration, i, n int) error {
	if d <= 0 || i >= n-1 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
