package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nawalabot/internal/app"
)

func main() {
	var (
		cfgPath  string
		once     bool
		check    string
		seed     string
		testDest string
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.BoolVar(&once, "once", false, "run one monitoring pass and exit")
	flag.StringVar(&check, "check", "", "probe a single domain and exit")
	flag.StringVar(&seed, "seed", "", "apply a seed file to the store and exit")
	flag.StringVar(&testDest, "test-connection", "", "send a test message to a chat ID and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.NewApp(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	switch {
	case check != "":
		res, err := a.CheckDomain(ctx, check)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			stop(a)
			os.Exit(1)
		}
		fmt.Printf("%s: %s", res.Domain, res.Status)
		if res.Detail != "" {
			fmt.Printf(" (%s)", res.Detail)
		}
		fmt.Println()
		stop(a)
		return

	case seed != "":
		if err := a.SeedStore(ctx, seed); err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			stop(a)
			os.Exit(1)
		}
		stop(a)
		return

	case testDest != "":
		if err := a.TestConnection(ctx, testDest); err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			stop(a)
			os.Exit(1)
		}
		stop(a)
		return

	case once:
		sum, err := a.RunOnce(ctx)
		fmt.Printf("users=%d domains=%d alerts=%d reports=%d took=%s\n",
			sum.UsersProcessed, sum.TotalDomains, sum.AlertsSent, sum.ReportsSent, sum.Took)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			stop(a)
			os.Exit(1)
		}
		stop(a)
		return
	}

	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		stop(a)
		os.Exit(1)
	}

	<-ctx.Done()
	stop(a)
}

func stop(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.Stop(ctx)
}
