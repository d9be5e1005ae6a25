package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/repo"
	pkgconfig "github.com/Skotchmaster/freshcart/pkg/config"
	"github.com/Skotchmaster/freshcart/pkg/db"
)

const usage = `usage: shopctl [flags] <command>

commands:
  locations    list service locations
  otp-ledger   summarize the OTP ledger by channel and state
`

func main() {
	var (
		all     = flag.Bool("all", false, "locations: include inactive locations")
		timeout = flag.Duration("timeout", 30*time.Second, "overall command timeout")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	dsn := pkgconfig.EnvDefault("DATABASE_URL", "")
	pkgconfig.MustNonEmpty(map[string]string{"DATABASE_URL": dsn})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	gdb, err := db.Open(ctx, db.Options{
		Driver:       pkgconfig.EnvDefault("DB_DRIVER", db.DriverPostgres),
		DSN:          dsn,
		PGDriverName: pkgconfig.EnvDefault("PG_DRIVER_NAME", "pgx"),
	})
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close(gdb)

	r := &repo.GormRepo{DB: gdb}

	switch cmd := flag.Arg(0); cmd {
	case "locations":
		locs, err := r.ListLocations(ctx, !*all)
		if err != nil {
			log.Fatalf("list locations: %v", err)
		}
		err = printLocations(os.Stdout, locs)
		if err != nil {
			log.Fatalf("render: %v", err)
		}
	case "otp-ledger":
		stats, err := r.OtpLedger(ctx, time.Now().UTC())
		if err != nil {
			log.Fatalf("otp ledger: %v", err)
		}
		if err := printLedger(os.Stdout, stats); err != nil {
			log.Fatalf("render: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printLocations(w io.Writer, locs []models.ServiceLocation) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Pincode", "Area", "District", "State", "Country", "Active")
	for _, l := range locs {
		row := []string{
			strconv.FormatUint(uint64(l.ID), 10),
			l.Pincode,
			l.AreaName,
			l.District,
			l.State,
			l.Country,
			yesNo(l.IsActive),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func printLedger(w io.Writer, stats *repo.OtpLedgerStats) error {
	table := tablewriter.NewWriter(w)
	table.Header("Channel", "Consumed", "Records")
	var total int64
	for _, row := range stats.Rows {
		total += row.Count
		if err := table.Append([]string{
			string(row.Channel),
			yesNo(row.Consumed),
			strconv.FormatInt(row.Count, 10),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "total records: %d, expired and never consumed: %d\n", total, stats.ExpiredPending)
	return err
}
