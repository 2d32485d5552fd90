package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/kardianos/service"
)

// watchProgram runs the folder watcher as a system service.
type watchProgram struct {
	args   []string
	cancel context.CancelFunc
	done   chan struct{}
}

// Start implements service.Interface
func (p *watchProgram) Start(s service.Service) error {
	log.Println("Starting AoE recording watcher service...")
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		if err := watchFolder(ctx, p.args); err != nil {
			log.Printf("Watcher stopped with error: %v", err)
		}
	}()
	return nil
}

// Stop implements service.Interface
func (p *watchProgram) Stop(s service.Service) error {
	log.Println("Stopping AoE recording watcher service...")
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	return nil
}

func getServiceConfig(watchArgs []string) *service.Config {
	return &service.Config{
		Name:        "AoERecWatcher",
		DisplayName: "AoE Recording Watcher",
		Description: "Analyses and archives every new Age of Empires II recording",
		Arguments:   append([]string{"service", "run"}, watchArgs...),
	}
}

// runServiceCommand handles service management commands. Arguments after
// the action are passed to the watcher, e.g. "service install -archive".
func runServiceCommand(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: aoe-rec service [install|uninstall|start|stop|restart|status|run] [watch options]")
		os.Exit(1)
	}

	action, watchArgs := args[0], args[1:]
	prg := &watchProgram{args: watchArgs}
	svcConfig := getServiceConfig(watchArgs)
	s, err := service.New(prg, svcConfig)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	switch action {
	case "run":
		if err := s.Run(); err != nil {
			log.Fatalf("Service failed: %v", err)
		}
	case "install":
		if err := s.Install(); err != nil {
			log.Fatalf("Failed to install service: %v", err)
		}
		fmt.Println("Service installed. Start it with: aoe-rec service start")
	case "uninstall":
		if err := s.Uninstall(); err != nil {
			log.Fatalf("Failed to uninstall service: %v", err)
		}
		fmt.Println("Service uninstalled")
	case "start":
		if err := s.Start(); err != nil {
			log.Fatalf("Failed to start service: %v", err)
		}
		fmt.Println("Service started")
	case "stop":
		if err := s.Stop(); err != nil {
			log.Fatalf("Failed to stop service: %v", err)
		}
		fmt.Println("Service stopped")
	case "restart":
		if err := s.Restart(); err != nil {
			log.Fatalf("Failed to restart service: %v", err)
		}
		fmt.Println("Service restarted")
	case "status":
		status, err := s.Status()
		if err != nil {
			log.Fatalf("Failed to get service status: %v", err)
		}
		switch status {
		case service.StatusRunning:
			fmt.Println("Status: running")
		case service.StatusStopped:
			fmt.Println("Status: stopped")
		default:
			fmt.Println("Status: unknown")
		}
		fmt.Printf("Name: %s\n", svcConfig.Name)
	default:
		fmt.Printf("Unknown service command: %s\n", action)
		os.Exit(1)
	}
}
