// Copyright 2025 Relaydesk
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Seeder generates synthetic support ticket CSV files for exercising the
// ingestion pipeline. Every interval it writes one tickets_<timestamp>.csv
// batch into the output directory, the same shape a ticketing system
// export drop would produce.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

var issueTypes = []string{
	"login", "payment", "profile update", "feature request",
	"bug report", "general inquiry", "password reset",
}

var urgencies = []string{"low", "medium", "high", "critical"}

var userAgents = []string{"Chrome", "Firefox", "Safari", "MobileApp"}

func main() {
	output := flag.String("output", "./data/input", "directory to write ticket CSV files into")
	interval := flag.Duration("interval", 15*time.Second, "delay between batches")
	batchSize := flag.Int("batch-size", 5, "tickets per file")
	count := flag.Int("count", 0, "number of batches to write (0 = run until interrupted)")
	flag.Parse()

	if err := os.MkdirAll(*output, 0o755); err != nil {
		slog.Error("cannot create output directory", "dir", *output, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("seeder started", "output", *output, "interval", *interval, "batch_size", *batchSize)

	ticketCounter := 0
	for batch := 0; *count == 0 || batch < *count; batch++ {
		select {
		case <-ctx.Done():
			slog.Info("seeder stopped")
			return
		case <-time.After(*interval):
		}

		filename, n, err := writeBatch(*output, *batchSize, &ticketCounter)
		if err != nil {
			slog.Error("error writing batch", "err", err)
			continue
		}
		slog.Info("wrote ticket batch", "file", filename, "tickets", n)
	}
}

func writeBatch(dir string, batchSize int, ticketCounter *int) (string, int, error) {
	now := time.Now()
	filename := filepath.Join(dir, fmt.Sprintf("tickets_%s.csv", now.Format("20060102150405.000000")))

	f, err := os.Create(filename)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ticket_id", "timestamp", "customer_id", "subject", "body"}); err != nil {
		return "", 0, err
	}

	timestamp := now.UTC().Format(time.RFC3339)
	for i := 0; i < batchSize; i++ {
		ticketID := fmt.Sprintf("TKT-%06d", *ticketCounter)
		customerID := fmt.Sprintf("CUST-%04d", *ticketCounter%150)
		issueType := issueTypes[rand.Intn(len(issueTypes))]
		urgency := urgencies[rand.Intn(len(urgencies))]

		subject := fmt.Sprintf("Issue with %s - Urgency: %s (%s)", issueType, urgency, ticketID)
		body := fmt.Sprintf("User %s reported an issue regarding %s. "+
			"Timestamp: %s. Details received: Error code E%d. "+
			"Please investigate ticket %s. Related user agent: %s. "+
			"Follow up needed: %s.",
			customerID, issueType, timestamp, 100+rand.Intn(900),
			ticketID, userAgents[rand.Intn(len(userAgents))],
			[]string{"Yes", "No"}[rand.Intn(2)])

		if err := w.Write([]string{ticketID, timestamp, customerID, subject, body}); err != nil {
			return "", 0, err
		}
		*ticketCounter++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", 0, err
	}
	return filename, batchSize, nil
}
