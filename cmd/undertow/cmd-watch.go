// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/undertow/config"
	"github.com/wavetermdev/undertow/engine"
	"github.com/wavetermdev/undertow/preview"
	"golang.org/x/sync/errgroup"
)

var serveAddrArg string

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Re-render a markup file into a surface every time it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  watchRun,
}

var serveCmd = &cobra.Command{
	Use:   "serve FILE",
	Short: "Watch a markup file and serve the live surface and its patch stream",
	Args:  cobra.ExactArgs(1),
	RunE:  serveRun,
}

func init() {
	for _, cmd := range []*cobra.Command{watchCmd, serveCmd} {
		cmd.Flags().StringVar(&surfaceArg, "surface", DefaultSurfaceMarkup, "host page markup")
		cmd.Flags().StringVar(&targetArg, "target", DefaultTargetId, "render target element id")
	}
	serveCmd.Flags().StringVar(&serveAddrArg, "addr", "127.0.0.1:7340", "listen address")
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}

func sameFile(a string, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// runWatcher reloads the session on every write to the template or the
// settings file until ctx is done. do serializes the reload against other
// users of the surface. onRestart runs after a settings reload, outside do.
func runWatcher(ctx context.Context, ts *templateSession, do func(func()), onRestart func()) error {
	files := []string{ts.fileName}
	if configFileArg != "" {
		files = append(files, configFileArg)
	}
	watcher, err := config.MakeWatcher(func(fileName string) {
		if configFileArg == "" || !sameFile(fileName, configFileArg) {
			do(ts.reload)
			return
		}
		settings, err := loadSettings()
		if err != nil {
			log.Printf("[config] cannot reload settings: %v\n", err)
			return
		}
		do(func() {
			if err := ts.restart(settings); err != nil {
				log.Printf("[undertow] restart error: %v\n", err)
			}
		})
		if onRestart != nil {
			onRestart()
		}
	}, files...)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", ts.fileName, err)
	}
	go func() {
		<-ctx.Done()
		watcher.Close()
	}()
	watcher.Run()
	return nil
}

func watchRun(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	ts, err := makeTemplateSession(args[0], surfaceArg, targetArg, settings, logRenderStats)
	if err != nil {
		return err
	}
	if err := ts.comp.Start(); err != nil {
		return err
	}
	ctx, cancelFn := signalContext()
	defer cancelFn()
	do := func(fn func()) { fn() }
	if err := runWatcher(ctx, ts, do, nil); err != nil {
		return err
	}
	ts.comp.Stop()
	log.Printf("[undertow] final markup: %s\n", ts.surface.Render(ts.surface.GetElementById(targetArg)))
	return nil
}

func serveRun(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	var server *preview.Server
	ts, err := makeTemplateSession(args[0], surfaceArg, targetArg, settings, func(stats engine.RenderStats) {
		logRenderStats(stats)
		server.OnRender(stats)
	})
	if err != nil {
		return err
	}
	server = preview.MakeServer(ts.surface, targetArg)
	server.Attach(ts.comp)
	server.Do(func() {
		err = ts.comp.Start()
	})
	if err != nil {
		return err
	}
	listener, err := net.Listen("tcp", serveAddrArg)
	if err != nil {
		return fmt.Errorf("error creating listener at %v: %v", serveAddrArg, err)
	}
	ctx, cancelFn := signalContext()
	defer cancelFn()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runWatcher(gctx, ts, server.Do, func() {
			server.Attach(ts.comp)
		})
	})
	g.Go(func() error {
		return server.Serve(gctx, listener)
	})
	err = g.Wait()
	server.Do(ts.comp.Stop)
	return err
}
