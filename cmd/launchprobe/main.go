// launchprobe drives one launch-pipeline run end to end from the command
// line and prints the event bus to stdout. It is a thin stand-in for the
// GUI layer's event host, kept disposable the way cmd/debug-adoptium is
// for Adoptium probing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/quasar/mctui/internal/api"
	"github.com/quasar/mctui/internal/config"
	"github.com/quasar/mctui/internal/core"
	"github.com/quasar/mctui/internal/events"
	"github.com/quasar/mctui/internal/launch"
	"github.com/quasar/mctui/internal/mcargs"
)

func main() {
	version := flag.String("version", "", "Minecraft version id, or empty/\"latest\" for the newest release")
	loader := flag.String("loader", "vanilla", "vanilla or fabric")
	name := flag.String("name", "launchprobe", "instance display name")
	offline := flag.Bool("offline", false, "launch without Microsoft authentication")
	joinHost := flag.String("join", "", "optional host[:port] to direct-connect to on join")
	flag.Parse()

	loaderType := core.LoaderType(*loader)
	if loaderType != core.LoaderVanilla && loaderType != core.LoaderFabric {
		log.Fatalf("unsupported loader %q (want vanilla or fabric)", *loader)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("preparing data directories: %v", err)
	}

	instances := core.NewInstanceManager(cfg.DataDir)
	if err := instances.Load(); err != nil {
		log.Fatalf("loading instances: %v", err)
	}

	inst := &core.Instance{
		ID:      *name,
		Name:    *name,
		Version: *version,
		Loader:  loaderType,
	}
	if existing, ok := instances.Get(inst.ID); ok {
		inst = existing
	} else if err := instances.Create(inst); err != nil {
		log.Fatalf("creating instance: %v", err)
	}

	accounts := core.NewAccountManager(cfg.DataDir)
	if err := accounts.Load(); err != nil {
		log.Fatalf("loading accounts: %v", err)
	}

	var account *core.Account
	if !*offline {
		account, err = accounts.RequireActive()
		if err != nil {
			log.Fatalf("resolving active account: %v (pass -offline to skip auth)", err)
		}
	}

	bus := events.New()
	bus.On(events.TopicLaunching, func(payload string) { fmt.Println("[launching]", payload) })
	bus.On(events.TopicLogLine, func(payload string) { fmt.Println("[log]", payload) })
	bus.On(events.TopicStarted, func(payload string) { fmt.Println("[started]", payload) })
	bus.On(events.TopicExited, func(payload string) { fmt.Println("[exited]", payload) })

	var join *mcargs.JoinServer
	if *joinHost != "" {
		join = parseJoinServer(*joinHost)
	}

	opts := &launch.Options{
		Instance:         inst,
		Config:           cfg,
		Mojang:           api.NewMojangClient(cfg.DataDir),
		Fabric:           api.NewFabricClient(),
		Account:          account,
		Offline:          *offline,
		JoinServer:       join,
		Bus:              bus,
		UpdateLastPlayed: instances.UpdateLastPlayed,
		UpdateInstance:   instances.Update,
	}

	statusChan := make(chan launch.Status, 16)
	go func() {
		for s := range statusChan {
			if s.Error != nil {
				fmt.Fprintf(os.Stderr, "[error] %s: %v\n", s.Step, s.Error)
			}
		}
	}()

	launcher := launch.NewLauncher(opts, statusChan)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := launcher.Launch(ctx); err != nil {
		close(statusChan)
		log.Fatalf("launch failed: %v", err)
	}
	close(statusChan)
}

func parseJoinServer(hostPort string) *mcargs.JoinServer {
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return &mcargs.JoinServer{Host: hostPort}
	}
	port, _ := strconv.Atoi(portStr)
	return &mcargs.JoinServer{Host: host, Port: port}
}
