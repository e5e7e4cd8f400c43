package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gridseq/api"
	"gridseq/audition"
	"gridseq/config"
	"gridseq/debug"
	"gridseq/session"
	"gridseq/theme"
	"gridseq/timeline"
	"gridseq/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config: %v\n", err)
		os.Exit(1)
	}

	if cfg.UI.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Printf("debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	th := theme.New(theme.DefaultPalette())

	client := api.NewClient(cfg.Server.URL)
	poller := api.NewPoller(client, time.Duration(cfg.Server.PollIntervalMS)*time.Millisecond)

	manager := session.NewManager(client, poller, session.ProjectDefaults{
		Name: cfg.Project.Name,
		BPM:  cfg.Project.BPM,
		Bars: cfg.Project.Bars,
	}, timeline.ParseGrid(cfg.UI.Grid))

	// Local MIDI audition is optional; the server does all real audio
	var player *audition.Player
	if cfg.MIDI.Enabled {
		player, err = audition.NewPlayer(cfg.MIDI.Port, manager.State)
		if err != nil {
			fmt.Printf("audition disabled: %v\n", err)
		}
	}

	m := tui.NewModel(manager, player, th)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
