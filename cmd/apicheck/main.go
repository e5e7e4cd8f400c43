package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gridseq/api"
	"gridseq/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config: %v\n", err)
		os.Exit(1)
	}
	client := api.NewClient(cfg.Server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "create":
		createProject(ctx, client, cfg)
	case "get":
		getProject(ctx, client)
	case "chat":
		chat(ctx, client)
	case "job":
		runJob(ctx, client, cfg)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("Server Connectivity Checks")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  create              - Create a default project, print its id")
	fmt.Println("  get <id>            - Fetch and dump a project state")
	fmt.Println("  chat <id> <message> - Run a chat command against a project")
	fmt.Println("  job <id> <kind>     - Submit a job and poll it to completion")
}

func createProject(ctx context.Context, client *api.Client, cfg config.Config) {
	st, err := client.CreateProject(ctx, api.CreateProjectRequest{
		Name: cfg.Project.Name,
		BPM:  cfg.Project.BPM,
		Bars: cfg.Project.Bars,
	})
	if err != nil {
		fmt.Printf("create: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created %s (%s, %g bpm, %d bars)\n", st.ID, st.Name, st.Meta.BPM, st.Meta.Bars)
}

func getProject(ctx context.Context, client *api.Client) {
	if len(os.Args) < 3 {
		usage()
		return
	}
	st, err := client.GetProject(ctx, os.Args[2])
	if err != nil {
		fmt.Printf("get: %v\n", err)
		os.Exit(1)
	}
	data, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(data))
}

func chat(ctx context.Context, client *api.Client) {
	if len(os.Args) < 4 {
		usage()
		return
	}
	resp, err := client.Chat(ctx, os.Args[2], os.Args[3])
	if err != nil {
		fmt.Printf("chat: %v\n", err)
		os.Exit(1)
	}
	for _, msg := range resp.Messages {
		fmt.Println(msg)
	}
	fmt.Printf("%d events\n", len(resp.State.Events))
}

func runJob(ctx context.Context, client *api.Client, cfg config.Config) {
	if len(os.Args) < 4 {
		usage()
		return
	}
	kind := os.Args[3]

	var params any
	switch kind {
	case api.JobGenerateSample:
		params = api.GenerateSampleParams{Instrument: "bass", BasePitch: "A1", Seconds: 1.5}
	default:
		params = api.RenderParams{Seconds: 2}
	}

	jobID, err := client.SubmitJob(ctx, os.Args[2], kind, params)
	if err != nil {
		fmt.Printf("submit: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("job %s submitted\n", jobID)

	poller := api.NewPoller(client, time.Duration(cfg.Server.PollIntervalMS)*time.Millisecond)
	job, err := poller.Wait(ctx, jobID, func(j api.Job) {
		fmt.Printf("  %s %d%% %s\n", j.Status, j.Progress, j.Message)
	})
	if err != nil {
		fmt.Printf("poll: %v\n", err)
		os.Exit(1)
	}
	data, _ := json.Marshal(job.Result)
	fmt.Printf("done: %s\n", data)
}
