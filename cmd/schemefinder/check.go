package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"schemefinder/internal/app"
	"schemefinder/internal/catalog"
	"schemefinder/internal/eligibility"
	"schemefinder/internal/eligibility/handler"
)

type checkFlags struct {
	age        string
	income     string
	occupation string
	caste      string
	gender     string
	state      string
	district   string
	explain    bool
}

// profile passes only the flags the user set, so an omitted flag behaves
// like a field missing from an HTTP request.
func (f checkFlags) profile(cmd *cobra.Command) eligibility.RawProfile {
	set := func(name, value string) any {
		if cmd.Flags().Changed(name) {
			return value
		}
		return nil
	}
	return eligibility.RawProfile{
		Age:        set("age", f.age),
		Income:     set("income", f.income),
		Occupation: set("occupation", f.occupation),
		Caste:      set("caste", f.caste),
		Gender:     set("gender", f.gender),
		State:      set("state", f.state),
		District:   set("district", f.district),
	}
}

func newCheckCmd(c *cli) *cobra.Command {
	var f checkFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate one profile against the catalog and print the matches as JSON",
		Example: `  schemefinder check --age 25 --income 80000 --occupation farmer --state Bihar
  schemefinder check --gender female --income 120000 --explain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cat, err := app.LoadCatalog(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			svc, err := eligibility.New(cat)
			if err != nil {
				return err
			}

			raw := f.profile(cmd)
			var out any
			if f.explain {
				result, err := svc.Explain(ctx, raw)
				if err != nil {
					return err
				}
				out = handler.FromResult(result)
			} else {
				matched, err := svc.CheckEligibility(ctx, raw)
				if err != nil {
					return err
				}
				out = handler.CheckEligibilityResponse{EligibleSchemes: matched}
			}
			return writeJSON(cmd, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.age, "age", "", "applicant age in years")
	flags.StringVar(&f.income, "income", "", "annual household income")
	flags.StringVar(&f.occupation, "occupation", "", "occupation, e.g. farmer, student")
	flags.StringVar(&f.caste, "caste", "", "caste category, e.g. General, OBC, SC, ST")
	flags.StringVar(&f.gender, "gender", "", "gender, e.g. male, female")
	flags.StringVar(&f.state, "state", "", "state of residence")
	flags.StringVar(&f.district, "district", "", "district of residence")
	flags.BoolVar(&f.explain, "explain", false, "include the failed criteria of every excluded scheme")
	return cmd
}

func newSchemesCmd(c *cli) *cobra.Command {
	var locale string

	cmd := &cobra.Command{
		Use:   "schemes",
		Short: "Print the catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := app.LoadCatalog(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			if locale == "" {
				return writeJSON(cmd, handler.SchemesResponse{
					Schemes:      cat.All(),
					Locations:    cat.Locations(),
					Translations: cat.Translations(),
				})
			}

			type summary struct {
				ID   int    `json:"id"`
				Name string `json:"name"`
			}
			out := make([]summary, 0, cat.Len())
			for _, s := range cat.All() {
				out = append(out, summary{ID: s.ID, Name: s.Name.In(locale)})
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", fmt.Sprintf("print only ids and names in a locale (%s, %s)", catalog.LocaleEnglish, catalog.LocaleHindi))
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
