package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/accesslog"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/config"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/geo"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/output"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/table"
	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count [flags] [files...]",
	Short: "Count client addresses in access logs",
	Long: `Count how often each client address appears in web server access logs
and write ip,count,location rows sorted by hits.

Arguments may be files, directories or glob patterns. Gzipped logs are
read transparently. With no arguments every *.gz file in log_dir is read.
Files that cannot be read are reported and skipped.

Examples:
  pcdnban count
  pcdnban count /var/log/nginx/access.log*.gz
  pcdnban count --no-geo --top 20 ./logs
  pcdnban count --city-db GeoLite2-City.mmdb --asn-db GeoLite2-ASN.mmdb ./logs`,
	RunE: runCount,
}

func init() {
	countCmd.Flags().StringP("output", "o", "ip-statistics.csv", "CSV file to write the counts to")
	countCmd.Flags().Int("workers", 0, "number of files and lookups processed concurrently (default: CPU count)")
	countCmd.Flags().Int("top", 10, "number of busiest addresses to print")
	countCmd.Flags().Bool("no-geo", false, "skip geolocation and write the unknown marker")
	countCmd.Flags().String("city-db", "", "MaxMind City database (default from geo.city_db)")
	countCmd.Flags().String("asn-db", "", "MaxMind ASN database for the ISP name")

	rootCmd.AddCommand(countCmd)
}

func runCount(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	cc := s.cfg.Count
	overrideString(cmd, "output", &cc.Output)
	overrideInt(cmd, "top", &cc.Top)
	gc := s.cfg.Geo
	overrideString(cmd, "city-db", &gc.CityDB)
	overrideString(cmd, "asn-db", &gc.ASNDB)
	workers := s.cfg.WorkerCount()
	if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
		workers = n
	}
	noGeo, _ := cmd.Flags().GetBool("no-geo")

	patterns := args
	if len(patterns) == 0 {
		patterns = []string{filepath.Join(s.cfg.LogDir, "*.gz")}
	}
	files, err := config.ExpandInputs(patterns, ".gz")
	if err != nil {
		return err
	}
	s.logger.Info("counting addresses", "files", len(files), "workers", workers)

	ctx := contextOf(cmd)
	counter := accesslog.NewCounter(s.logger,
		accesslog.WithWorkers(workers),
		accesslog.WithProgress(func(done, total int, path string) {
			s.logger.Info("processed log file", "file", filepath.Base(path), "done", done, "total", total)
		}),
	)
	counts, errs := counter.CountFiles(ctx, files)
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("counted addresses", "unique", len(counts), "lines", counts.Total())

	sorted := counts.Sorted()
	addrs := make([]string, len(sorted))
	for i, ac := range sorted {
		addrs[i] = ac.Address
	}

	locations, err := locate(cmd, s.logger, gc, noGeo, addrs, workers)
	if err != nil {
		return err
	}

	rows := make([]table.Row, len(sorted))
	for i, ac := range sorted {
		loc, ok := locations[ac.Address]
		if !ok {
			loc = gc.Unknown
		}
		rows[i] = table.Row{IP: ac.Address, Count: ac.Count, Location: loc}
	}

	if err := table.WriteRows(cc.Output, rows); err != nil {
		return fmt.Errorf("write %s: %w", cc.Output, err)
	}

	top := rows
	if len(top) > cc.Top {
		top = top[:cc.Top]
	}
	return s.out.WriteCountReport(output.CountReport{
		Files:     len(files),
		Failed:    len(errs),
		Lines:     counts.Total(),
		Addresses: len(counts),
		Output:    cc.Output,
		Top:       top,
	})
}

// locate resolves every address. A database that cannot be opened is logged
// and every address gets the unknown marker.
func locate(cmd *cobra.Command, logger *log.Logger, gc config.GeoConfig, noGeo bool, addrs []string, workers int) (map[string]string, error) {
	if noGeo || len(addrs) == 0 {
		return nil, nil
	}

	db, err := geo.OpenMMDB(gc.CityDB, gc.ASNDB, gc.Language)
	if err != nil {
		logger.Warn("geolocation disabled", "error", err)
		return nil, nil
	}
	defer db.Close()

	cache := geo.NewCache(geo.NewResolver(db, gc.Unknown, logger))
	locations, err := geo.LocateAll(contextOf(cmd), cache, addrs, workers, func(done, total int) {
		logger.Info("geolocating", "done", done, "total", total)
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("geolocation finished", "cached", cache.Len())
	return locations, nil
}
