package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kirinyoku/sunset-go/internal/app"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/service/ledger"
	"github.com/spf13/cobra"
)

// recordPrefix is shared by every key the site keeps in browser storage.
const recordPrefix = "sunset_"

type importReport struct {
	Imported  []string                `json:"imported"`
	Skipped   []string                `json:"skipped"`
	Migration *ledger.MigrationReport `json:"migration"`
}

func newImportCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dump.json>",
		Short: "Load a browser storage dump into the store",
		Long: `Load a browser storage dump into the store.

The dump is a JSON object mapping storage keys to their values, either as the
JSON-encoded strings browser storage holds or as plain JSON. Keys outside the
site's namespace, the browser's login session and the site's generated update
script are skipped; the next event configuration save regenerates the update
script. Records already in the store are overwritten. Per-user ticket lists
are then folded into the purchase ledger; lists that do not decode are left in
place and counted as unreadable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := r.formatter(cmd)

			b, err := os.ReadFile(args[0])
			if err != nil {
				_ = f.Error("usage", err.Error())
				return WrapExitError(ExitCommandError, "cannot read dump", err)
			}

			records, skipped, err := parseDump(b)
			if err != nil {
				return usage(f, err.Error())
			}

			return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
				report := importReport{Imported: []string{}, Skipped: skipped}

				keys := make([]string, 0, len(records))
				for k := range records {
					keys = append(keys, k)
				}
				sort.Strings(keys)

				for _, k := range keys {
					if err := a.Store().Set(ctx, k, records[k]); err != nil {
						return fail(f, err)
					}
					report.Imported = append(report.Imported, k)
					f.VerboseLog("imported %s (%d bytes)", k, len(records[k]))
				}

				mig, err := a.Services.Ledger.Migrate(ctx)
				if err != nil {
					return fail(f, err)
				}
				report.Migration = mig

				return f.Success(report, func(w io.Writer) {
					fmt.Fprintf(w, "%s %d record(s)\n", okStyle.Render("Imported"), len(report.Imported))
					if len(report.Skipped) > 0 {
						fmt.Fprintf(w, "Skipped: %s\n", strings.Join(report.Skipped, ", "))
					}
					renderFields(w,
						"Ticket lists", strconv.Itoa(mig.LegacyLists),
						"Reconciled", strconv.Itoa(mig.Reconciled),
						"Orphans", strconv.Itoa(mig.Orphans),
						"Removed", strconv.Itoa(mig.Removed),
						"Unreadable", strconv.Itoa(mig.Unreadable),
					)
				})
			})
		},
	}
}

// parseDump returns the records to store, keyed by storage key, and the keys
// it leaves out.
func parseDump(b []byte) (map[string][]byte, []string, error) {
	var dump map[string]json.RawMessage
	if err := json.Unmarshal(b, &dump); err != nil {
		return nil, nil, fmt.Errorf("invalid dump: %w", err)
	}

	records := make(map[string][]byte, len(dump))
	skipped := []string{}

	for k, raw := range dump {
		if !strings.HasPrefix(k, recordPrefix) || k == repository.KeySession || k == repository.KeyUpdateScript {
			skipped = append(skipped, k)
			continue
		}

		val := []byte(raw)

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			val = []byte(s)
		}

		if !json.Valid(val) {
			return nil, nil, fmt.Errorf("invalid dump: %s does not hold JSON", k)
		}

		records[k] = val
	}

	sort.Strings(skipped)

	return records, skipped, nil
}
