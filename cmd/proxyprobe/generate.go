package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/August26/proxyprobe/internal/generator"
	"github.com/August26/proxyprobe/internal/parser"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate residential proxy endpoints for a provider",
	Long: `Expand a provider template into proxy URLs, one per session index, city
and ASN combination:

  count = sessions x max(1, cities) x max(1, asns)

GoProxies accepts city and ASN targeting together. Oxylabs gives ASN targeting
priority, so cities are dropped when both are set.

Credentials can come from --user/--pass or from the generator section of the
config (PROXYPROBE_GENERATOR_USERNAME / PROXYPROBE_GENERATOR_PASSWORD).

Examples:
  proxyprobe generate --provider goproxies --user acme --pass secret --city sydney --city perth
  proxyprobe generate --provider oxylabs --user acme --pass secret --asn 1221 --sessions 5 --check
  proxyprobe generate --list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if list, _ := cmd.Flags().GetBool("list"); list {
			printCatalog(out)
			return nil
		}

		cities, _ := cmd.Flags().GetStringSlice("city")
		asns, _ := cmd.Flags().GetStringSlice("asn")

		spec := generator.Spec{
			Provider:        generator.ProviderID(strings.ToLower(stringOption(cmd, "provider", cfg.Generator.Provider))),
			Username:        stringOption(cmd, "user", cfg.Generator.Username),
			Password:        stringOption(cmd, "pass", cfg.Generator.Password),
			Country:         strings.ToLower(stringOption(cmd, "country", cfg.Generator.Country)),
			Cities:          cities,
			ASNs:            asns,
			Sessions:        intOption(cmd, "sessions", cfg.Generator.Sessions),
			SessionDuration: time.Duration(intOption(cmd, "session-minutes", cfg.Generator.SessionMinutes)) * time.Minute,
		}

		for _, c := range cities {
			if _, ok := generator.LookupCity(c); !ok {
				log.Warn("city not in catalog, passing it through", "city", c)
			}
		}
		if spec.CityIgnored() {
			log.Warn("oxylabs ignores city targeting when an ASN is set", "cities", len(cities), "asns", len(asns))
		}

		lines, err := generator.Generate(spec)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		log.Info("endpoints generated",
			"provider", string(spec.Provider),
			"count", len(lines),
			"cities", len(cities),
			"asns", len(asns),
			"sessions", spec.Sessions,
		)

		if save, _ := cmd.Flags().GetString("save"); save != "" {
			data := strings.Join(lines, "\n") + "\n"
			if err := os.WriteFile(save, []byte(data), 0600); err != nil {
				return fmt.Errorf("failed to write proxy list: %w", err)
			}
			log.Info("proxy list written", "path", save)
		}

		if check, _ := cmd.Flags().GetBool("check"); check {
			opts, err := checkOptionsFrom(cmd)
			if err != nil {
				return err
			}
			return runCheck(cmd, parser.ParseList(strings.Join(lines, "\n")), opts)
		}

		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
		return nil
	},
}

func printCatalog(w io.Writer) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "PROVIDER\tGATEWAY")
	for _, p := range generator.Providers() {
		fmt.Fprintf(tw, "%s\t%s:%d\n", p.ID, p.Host, p.Port)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "REGION\tCITY\tSLUG\tNOTE")
	for _, r := range generator.Regions() {
		for _, c := range r.Cities {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Label, c.Name, c.Slug, c.Note)
		}
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "ASN\tNETWORK")
	for _, a := range generator.KnownASNs() {
		fmt.Fprintf(tw, "%s\t%s\n", a.Number, a.Name)
	}
	tw.Flush()
}

func init() {
	generateCmd.Flags().String("provider", "goproxies", "provider: goproxies | oxylabs")
	generateCmd.Flags().String("user", "", "provider customer name")
	generateCmd.Flags().String("pass", "", "provider password")
	generateCmd.Flags().String("country", generator.DefaultCountry, "two-letter target country")
	generateCmd.Flags().StringSlice("city", nil, "target city slug (repeatable)")
	generateCmd.Flags().StringSlice("asn", nil, "target ASN number (repeatable)")
	generateCmd.Flags().Int("sessions", 10, "session variants per city/ASN combination")
	generateCmd.Flags().Int("session-minutes", 10, "Oxylabs session lifetime in minutes (1-1440)")
	generateCmd.Flags().String("save", "", "write the generated list to this file")
	generateCmd.Flags().Bool("check", false, "probe the generated endpoints right away")
	generateCmd.Flags().Bool("list", false, "print providers, cities and known ASNs")
	addCheckFlags(generateCmd)

	rootCmd.AddCommand(generateCmd)
}
