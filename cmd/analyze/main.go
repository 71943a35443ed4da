// Command analyze prints a quick, human-readable report about the rooms
// persisted in a coordinator data directory. For every room it summarizes the
// players and host, and highlights inconsistencies such as a host that is not
// a listed player or players sharing a display name.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/partyroom/game/config"
	"github.com/wricardo/partyroom/game/protocol"
	"github.com/wricardo/partyroom/game/storage"
)

// RoomReport is the analysis result for one stored room
type RoomReport struct {
	ID       string
	Players  []protocol.Player
	HostID   string
	Warnings []string
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "report on rooms stored in a data directory",
		ArgsUsage: "[room ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Value:   config.DefaultDataDir,
				Usage:   "coordinator data directory",
				Sources: cli.EnvVars("PARTYROOM_DATA_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := storage.NewFileStore(cmd.String("data-dir"))
			if err != nil {
				return err
			}
			return analyze(ctx, os.Stdout, store, cmd.Args().Slice())
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logrus.WithError(err).Fatal("Analysis failed")
	}
}

// analyze writes a report for the named rooms, or every stored room when none are named
func analyze(ctx context.Context, w io.Writer, store *storage.FileStore, rooms []string) error {
	if len(rooms) == 0 {
		all, err := store.Rooms()
		if err != nil {
			return fmt.Errorf("listing rooms: %w", err)
		}
		rooms = all
	}
	sort.Strings(rooms)

	if len(rooms) == 0 {
		fmt.Fprintln(w, "No stored rooms.")
		return nil
	}

	for _, id := range rooms {
		report, err := analyzeRoom(ctx, store, strings.ToLower(id))
		if err != nil {
			fmt.Fprintf(w, "\n=== %s ===\nError: %v\n", id, err)
			continue
		}
		printReport(w, report)
	}
	return nil
}

func analyzeRoom(ctx context.Context, store storage.Store, roomID string) (*RoomReport, error) {
	players, hostID, err := storage.LoadRoom(ctx, store, roomID)
	if err != nil {
		return nil, err
	}

	report := &RoomReport{ID: roomID, Players: players, HostID: hostID}

	if hostID == "" && len(players) > 0 {
		report.Warnings = append(report.Warnings, "players stored but no host")
	}

	seenIDs := make(map[string]bool)
	seenNames := make(map[string]string)
	hostListed := false
	for _, p := range players {
		if seenIDs[p.ID] {
			report.Warnings = append(report.Warnings, fmt.Sprintf("player %s listed twice", p.ID))
		}
		seenIDs[p.ID] = true

		if p.ID == hostID {
			hostListed = true
		}
		if p.Name == "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("player %s has no name", p.ID))
			continue
		}
		if other, ok := seenNames[p.Name]; ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("players %s and %s are both named %q", other, p.ID, p.Name))
		} else {
			seenNames[p.Name] = p.ID
		}
	}

	if hostID != "" && !hostListed {
		report.Warnings = append(report.Warnings, fmt.Sprintf("host %s is not a listed player", hostID))
	}

	return report, nil
}

func printReport(w io.Writer, r *RoomReport) {
	fmt.Fprintf(w, "\n=== %s ===\n", r.ID)

	host := r.HostID
	if host == "" {
		host = "none"
	}
	fmt.Fprintf(w, "Host: %s\n", host)
	fmt.Fprintf(w, "Players: %d\n", len(r.Players))
	for _, p := range r.Players {
		fmt.Fprintf(w, "  - %s (%s), score %d\n", p.Name, p.ID, p.Score)
	}

	if len(r.Warnings) == 0 {
		fmt.Fprintln(w, "No problems found")
		return
	}
	fmt.Fprintf(w, "Warnings (%d):\n", len(r.Warnings))
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  ! %s\n", warning)
	}
}
