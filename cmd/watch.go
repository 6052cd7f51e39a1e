package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itiky/collaborate-mirror/mirror"
	"github.com/itiky/collaborate-mirror/object"
	"github.com/itiky/collaborate-mirror/remote"
)

const FlagLimit = "limit"

// GetWatchCmd returns the command printing a location every time it changes.
func GetWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Mirror a location and print it on every change",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := "/"
			if len(args) > 0 {
				path = args[0]
			}
			limit := mustGetInt(cmd, FlagLimit)

			s, err := startSession(cmd)
			if err != nil {
				logrus.Fatalf("session: %v", err)
			}
			defer s.Stop()

			var cancel func()
			s.loop.Sync(func() {
				loc := s.client.Root().Child(path)
				var q remote.Query = loc
				if limit > 0 {
					q = loc.Limit(limit)
				}

				c, err := mirror.Get(q)
				if err != nil {
					logrus.Fatalf("get: %v", err)
				}
				c.Then(func(c *mirror.Completion) {
					if err := c.Err(); err != nil {
						logrus.Errorf("get %s: %v", path, err)
						return
					}
					cancel = watchValue(s, path, c.Value())
				})
			})

			waitSignal()

			s.loop.Sync(func() {
				if cancel != nil {
					cancel()
				}
			})
		},
	}
	addClientFlags(cmd)
	cmd.Flags().Int(FlagLimit, 0, "(optional) mirror only the last N children")

	return cmd
}

// watchValue prints v and then every change of it, returns the cleanup.
func watchValue(s *session, path string, v interface{}) func() {
	dump := func() {
		fmt.Printf("--- %s\n%s", path, formatValue(v))
	}
	dump()

	switch m := v.(type) {
	case *mirror.List:
		cancel := m.Observe(func(index, count int, removed bool) { dump() })
		return func() {
			cancel()
			m.Destroy()
		}
	case *mirror.Hash:
		cancel := m.Observe(func(key string) { dump() })
		return func() {
			cancel()
			m.Destroy()
		}
	}

	// scalars are followed by a one-way binding
	obj := object.New(map[string]interface{}{"value": v})
	binding, err := mirror.BindOneWay(obj, "value", s.client.Root().Child(path), s.loop)
	if err != nil {
		logrus.Errorf("bind %s: %v", path, err)
		return nil
	}
	cancel := obj.Observe("value", func() {
		v = obj.Get("value")
		dump()
	})

	return func() {
		cancel()
		binding.Disconnect(obj)
	}
}

func init() {
	rootCmd.AddCommand(GetWatchCmd())
}
