package cmd

import (
	"fmt"

	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/output"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/table"
	"github.com/spf13/cobra"
)

var filterCmd = &cobra.Command{
	Use:   "filter [flags] [csv]",
	Short: "Select heavy hitters of a region and derive prefixes",
	Long: `Read the ip,count,location rows written by count, keep those with more
than --min-count hits whose location contains --region, and write them
along with the /24 and /16 prefixes that cover them.

The prefix file feeds straight into merge.

Examples:
  pcdnban filter
  pcdnban filter --min-count 200 --region 浙江 ip-statistics.csv
  pcdnban filter --cidr-output all_ip.origin.txt && pcdnban merge`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().Int("min-count", 80, "keep addresses with more hits than this")
	filterCmd.Flags().String("region", "江苏", "keep addresses whose location contains this text")
	filterCmd.Flags().StringP("output", "o", "filtered.csv", "CSV file for the matching rows")
	filterCmd.Flags().String("cidr-output", "cidrs.txt", "file for the /24 and /16 prefixes")

	rootCmd.AddCommand(filterCmd)
}

func runFilter(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	fc := s.cfg.Filter
	if len(args) > 0 {
		fc.Input = args[0]
	}
	overrideInt(cmd, "min-count", &fc.MinCount)
	overrideString(cmd, "region", &fc.Region)
	overrideString(cmd, "output", &fc.Output)
	overrideString(cmd, "cidr-output", &fc.CIDROutput)

	rows, err := table.ReadRows(fc.Input)
	if err != nil {
		return fmt.Errorf("read %s: %w", fc.Input, err)
	}

	matched := table.FilterRows(rows, fc.MinCount, fc.Region)
	s.logger.Info("filtered rows", "rows", len(rows), "matched", len(matched),
		"min_count", fc.MinCount, "region", fc.Region)

	if err := table.WriteRows(fc.Output, matched); err != nil {
		return fmt.Errorf("write %s: %w", fc.Output, err)
	}

	ips := make([]string, len(matched))
	for i, r := range matched {
		ips[i] = r.IP
	}
	cidr24, cidr16 := table.BuildPrefixes(ips)
	if err := table.WritePrefixFile(fc.CIDROutput, cidr24, cidr16); err != nil {
		return fmt.Errorf("write %s: %w", fc.CIDROutput, err)
	}

	return s.out.WriteFilterReport(output.FilterReport{
		Input:      fc.Input,
		Rows:       len(rows),
		Matched:    len(matched),
		Output:     fc.Output,
		CIDROutput: fc.CIDROutput,
		CIDR24:     cidr24,
		CIDR16:     cidr16,
	})
}
