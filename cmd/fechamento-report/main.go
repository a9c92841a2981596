package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alecthomas/kingpin"

	"fechamento/internal/backend"
	"fechamento/internal/cli"
	"fechamento/internal/config"
	"fechamento/internal/export"
	applog "fechamento/internal/log"
	"fechamento/internal/services"
	"fechamento/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	log.SetOutput(os.Stderr)
	log.SetFlags(0)

	logCfg := applog.DefaultConfig()
	logCfg.Level = applog.ParseLevel(cfg.LogLevel)
	logCfg.Component = applog.ComponentCLI
	logCfg.Output = os.Stderr
	applog.SetDefault(applog.New(logCfg))

	now := time.Now()

	backendType := kingpin.Flag("backend", "Data backend").Default(cfg.DataBackend).Enum(backend.GetBackendTypeStrings()...)
	seedFile := kingpin.Flag("seed", "YAML seed file").Default(cfg.SeedFile).String()
	dbPath := kingpin.Flag("db", "SQLite database path").Default(cfg.SQLiteDBPath).String()

	cmdMonth := kingpin.Command("month", "Show the closing of a month")
	monthYear := cmdMonth.Flag("year", "Year").Default(fmt.Sprint(now.Year())).Int()
	monthMonth := cmdMonth.Flag("month", "Month (1-12)").Default(fmt.Sprint(int(now.Month()))).Int()
	monthJSON := cmdMonth.Flag("json", "Print JSON instead of a table").Bool()

	cmdHistory := kingpin.Command("history", "Show the monthly series of a year")
	historyYear := cmdHistory.Flag("year", "Year").Default(fmt.Sprint(now.Year())).Int()

	cmdXLSX := kingpin.Command("xlsx", "Write a month and its year to an XLSX workbook")
	xlsxYear := cmdXLSX.Flag("year", "Year").Default(fmt.Sprint(now.Year())).Int()
	xlsxMonth := cmdXLSX.Flag("month", "Month (1-12)").Default(fmt.Sprint(int(now.Month()))).Int()
	xlsxOut := cmdXLSX.Flag("out", "Output file").Short('o').Required().String()

	cmdClose := kingpin.Command("close", "Compute a month and store it as a snapshot")
	closeYear := cmdClose.Flag("year", "Year").Default(fmt.Sprint(now.Year())).Int()
	closeMonth := cmdClose.Flag("month", "Month (1-12)").Default(fmt.Sprint(int(now.Month()))).Int()

	cmdSchema := kingpin.Command("schema", "Show the SQLite schema version")

	cmd := kingpin.Parse()

	if cmd == cmdSchema.FullCommand() {
		version, dirty, err := storage.SchemaVersion(*dbPath)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s: version %d (dirty: %t)\n", *dbPath, version, dirty)
		return
	}

	ctx := context.Background()
	result, err := backend.NewFactory(nil).CreateBackend(ctx, backend.Config{
		Type:         backend.BackendType(*backendType),
		SQLiteDBPath: *dbPath,
		SeedFile:     *seedFile,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer result.Close()

	svc := services.NewClosingService(result.Backend, services.WithSnapshots(result.Backend))

	switch cmd {
	case cmdMonth.FullCommand():
		s, err := svc.Summary(ctx, *monthYear, time.Month(*monthMonth))
		if err != nil {
			log.Fatal(err)
		}
		if *monthJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(s); err != nil {
				log.Fatal(err)
			}
			return
		}
		monthReport(os.Stdout, s)

	case cmdHistory.FullCommand():
		entries, err := svc.History(ctx, *historyYear)
		if err != nil {
			log.Fatal(err)
		}
		historyReport(os.Stdout, *historyYear, entries)

	case cmdXLSX.FullCommand():
		s, err := svc.Summary(ctx, *xlsxYear, time.Month(*xlsxMonth))
		if err != nil {
			log.Fatal(err)
		}
		entries, err := svc.History(ctx, *xlsxYear)
		if err != nil {
			log.Fatal(err)
		}
		data, err := export.ClosingXLSX(s, entries)
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(*xlsxOut, data, 0o644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", *xlsxOut, len(data))

	case cmdClose.FullCommand():
		snap, err := svc.Close(ctx, *closeYear, time.Month(*closeMonth))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Stored snapshot %s for %s %d\n", snap.ID, export.MonthName(snap.Month), snap.Year)
	}
}
