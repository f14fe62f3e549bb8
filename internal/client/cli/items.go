package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/sevr/internal/client/models"
)

func (a *App) save(ctx context.Context, items models.Services) error {
	if _, err := a.vault.Save(ctx, items); err != nil {
		return err
	}
	a.items = items
	return nil
}

func flags(s models.Service) string {
	f := ""
	if s.Important {
		f += "!"
	}
	switch {
	case s.Migrated:
		f += "migrated"
	case s.Ignored:
		f += "ignored"
	default:
		f += "pending"
	}
	return f
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *App) List(ctx context.Context) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	if len(a.items) == 0 {
		fmt.Fprintln(a.out, "No services yet. Use 'add'.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOMAIN\tSTATUS")
	for _, s := range a.items.Sorted() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", shortID(s.ID), s.Name, s.Domain, flags(s))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d of %d pending\n", a.items.Pending(), len(a.items))
	return nil
}

func (a *App) Add(ctx context.Context) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Service name", a.out)
	if err != nil {
		return err
	}
	domain, err := getSimpleText(a.reader, "Domain (optional)", a.out)
	if err != nil {
		return err
	}
	note, err := getSimpleText(a.reader, "Note (optional)", a.out)
	if err != nil {
		return err
	}

	s, err := models.NewService(name, domain)
	if err != nil {
		return err
	}
	s.Note = note

	items := append(models.Services{}, a.items...).Add(s)
	if err := a.save(ctx, items); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s (%s)\n", s.Name, shortID(s.ID))
	return nil
}

// Toggle flips one of the migrated, ignore or important flags.
func (a *App) Toggle(ctx context.Context, field, ref string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	i, err := a.items.Find(ref)
	if err != nil {
		return err
	}

	items := append(models.Services{}, a.items...)
	s := &items[i]
	switch field {
	case "migrated":
		s.Migrated = !s.Migrated
	case "ignore":
		s.Ignored = !s.Ignored
	case "important":
		s.Important = !s.Important
	default:
		return fmt.Errorf("unknown flag %q", field)
	}

	if err := a.save(ctx, items); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s\n", s.Name, flags(*s))
	return nil
}

func (a *App) Remove(ctx context.Context, ref string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	items, err := append(models.Services{}, a.items...).Remove(ref)
	if err != nil {
		return err
	}
	if err := a.save(ctx, items); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Removed")
	return nil
}
