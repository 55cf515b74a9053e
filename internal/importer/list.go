package importer

import (
	"context"
	"fmt"

	"github.com/dukerupert/householdimport/internal/database"
	"github.com/dukerupert/householdimport/internal/store"
	"github.com/jedib0t/go-pretty/v6/table"
)

// List prints every household ordered by identifier.
func (im *Importer) List(ctx context.Context) error {
	db, err := database.Open(im.cfg.DBPath)
	if err != nil {
		return fail(KindStorage, err)
	}
	defer db.Close()

	households, err := store.NewHouseholdStore(db).List(ctx)
	if err != nil {
		return fail(KindStorage, err)
	}

	if len(households) == 0 {
		fmt.Fprintln(im.out, "No households found in database")
		return nil
	}

	fmt.Fprintf(im.out, "\nTotal households in database: %d\n", len(households))

	t := table.NewWriter()
	t.SetOutputMirror(im.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"HouseholdId", "Name"})
	for _, h := range households {
		t.AppendRow(table.Row{h.ID, h.Name})
	}
	t.Render()
	return nil
}
