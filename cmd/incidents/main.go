// Command incidents lists incidents with their resolved addresses and checks
// the reference data the creation workflow depends on. It talks to the same
// downstream services as incidentd and reports, per phase, what it could not
// resolve.
//
// Usage:
//
//	go run ./cmd/incidents \
//	  -address-url http://localhost:8081 \
//	  -geography-url http://localhost:8082 \
//	  -incident-url http://localhost:8083 \
//	  -strict
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/incident-address-pipeline/internal/adapter/rest"
	"github.com/couchcryptid/incident-address-pipeline/internal/domain"
	"github.com/couchcryptid/incident-address-pipeline/internal/observability"
	"github.com/couchcryptid/incident-address-pipeline/internal/pipeline"
)

type options struct {
	addressURL   string
	geographyURL string
	incidentURL  string
	timeout      time.Duration
	chunkSize    int
	asJSON       bool
	strict       bool
}

// phase tracks pass/fail for a check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	var opts options
	flag.StringVar(&opts.addressURL, "address-url", "http://localhost:8081", "address service base URL")
	flag.StringVar(&opts.geographyURL, "geography-url", "http://localhost:8082", "geography service base URL")
	flag.StringVar(&opts.incidentURL, "incident-url", "http://localhost:8083", "incident service base URL")
	flag.DurationVar(&opts.timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.IntVar(&opts.chunkSize, "chunk", pipeline.DefaultChunkSize, "address lookups in flight at once")
	flag.BoolVar(&opts.asJSON, "json", false, "print enriched incidents as JSON instead of a table")
	flag.BoolVar(&opts.strict, "strict", false, "fail when any address segment fell back")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if code := run(ctx, opts, os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, opts options, out, errOut io.Writer) int {
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewUnregisteredMetrics()

	addresses := rest.NewAddressClient(opts.addressURL, opts.timeout, metrics, logger)
	geography := rest.NewGeographyClient(opts.geographyURL, opts.timeout, metrics, logger)
	incidents := rest.NewIncidentClient(opts.incidentURL, opts.timeout, metrics, logger)

	catalog := pipeline.NewCatalog(geography, metrics, logger)
	fetcher := pipeline.NewFetcher(addresses, geography, catalog, metrics, logger)
	enricher := pipeline.NewEnricher(fetcher, opts.chunkSize, metrics, logger)

	catalogPhase := checkCatalog(ctx, catalog)

	listPhase := &phase{name: "Incident listing"}
	list, err := incidents.ListIncidents(ctx)
	if err != nil {
		listPhase.errorf("list incidents: %v", err)
	}

	views := enricher.EnrichedViews(ctx, list)
	addressPhase := checkAddresses(errOut, views, opts.strict)

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(views); err != nil {
			fmt.Fprintf(errOut, "FATAL: encode incidents: %v\n", err)
			return 1
		}
	} else {
		printTable(out, views)
	}

	return report(errOut, []*phase{catalogPhase, listPhase, addressPhase})
}

func checkCatalog(ctx context.Context, catalog *pipeline.Catalog) *phase {
	p := &phase{name: "Geography catalog"}
	if err := catalog.Load(ctx); err != nil {
		p.errorf("load catalog: %v", err)
		return p
	}
	if len(catalog.Communes()) == 0 {
		p.errorf("no communes available: incident creation will fail")
	}
	for _, c := range catalog.Communes() {
		if _, ok := catalog.Region(c.RegionID); !ok {
			p.errorf("commune %d (%s) references unknown region %d", c.ID, c.Name, c.RegionID)
		}
	}
	return p
}

func checkAddresses(w io.Writer, views []domain.EnrichedIncident, strict bool) *phase {
	p := &phase{name: "Address resolution"}
	for _, v := range views {
		d := v.DisplayAddress
		if d == nil || !d.Degraded.Any() {
			continue
		}
		msg := fmt.Sprintf("incident %d: address %d degraded (address=%t commune=%t region=%t)",
			v.ID, *v.AddressID, d.Degraded.Address, d.Degraded.Commune, d.Degraded.Region)
		if strict {
			p.errorf("%s", msg)
		} else {
			fmt.Fprintf(w, "  note: %s\n", msg)
		}
	}
	return p
}

func printTable(out io.Writer, views []domain.EnrichedIncident) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREGISTERED\tSTATE\tTITLE\tADDRESS")
	for _, v := range views {
		registered := "-"
		if !v.RegisteredAt.IsZero() {
			registered = v.RegisteredAt.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", v.ID, registered, v.StateID, v.Title, v.AddressText)
	}
	tw.Flush() //nolint:errcheck // stdout
}

func report(w io.Writer, phases []*phase) int {
	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-28s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		return 0
	}
	return 1
}
