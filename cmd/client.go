package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/itiky/collaborate-mirror/mirror"
	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/runloop"
	"github.com/itiky/collaborate-mirror/service/client"
)

const (
	FlagServerUrl    = "server-url"
	FlagClientId     = "client-id"
	FlagPollPeriod   = "poll-period"
	FlagWriteTimeout = "timeout"
)

// session is a started client with the run loop its replica events are posted to.
type session struct {
	loop   *runloop.Loop
	client *client.Client
}

// Stop stops the client and the loop.
func (s *session) Stop() {
	s.client.Stop()
	s.loop.Stop()
}

// addClientFlags registers the flags every client command shares.
func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String(FlagServerUrl, cfg.Client.ServerURL, "(optional) server url")
	cmd.Flags().Uint32(FlagClientId, cfg.Client.ClientId, "(optional) unique clientID (random if 0)")
	cmd.Flags().Duration(FlagPollPeriod, cfg.Client.PollPeriod, "(optional) store updates poll period")
}

// startSession connects a client configured by the config file and flag overrides.
func startSession(cmd *cobra.Command) (*session, error) {
	clientCfg := cfg.Client
	if cmd.Flags().Changed(FlagServerUrl) {
		clientCfg.ServerURL = mustGetString(cmd, FlagServerUrl)
	}
	if cmd.Flags().Changed(FlagClientId) {
		clientCfg.ClientId = mustGetUint32(cmd, FlagClientId)
	}
	if cmd.Flags().Changed(FlagPollPeriod) {
		clientCfg.PollPeriod = mustGetDuration(cmd, FlagPollPeriod)
	}

	if clientCfg.ClientId == 0 {
		clientCfg.ClientId = rand.Uint32()
	}

	loop := runloop.New()
	c, err := client.NewClient(model.ClientId(clientCfg.ClientId), clientCfg.PollPeriod, clientCfg.ServerURL, loop)
	if err != nil {
		return nil, fmt.Errorf("client init: %w", err)
	}

	loop.Start()
	if err := c.Start(); err != nil {
		loop.Stop()
		return nil, fmt.Errorf("client start: %w", err)
	}

	return &session{loop: loop, client: c}, nil
}

// waitSignal blocks until the process is interrupted.
func waitSignal() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	<-signalCh
}

// waitCompletion waits for a write acknowledgement.
func waitCompletion(c *mirror.Completion, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return c.Wait(ctx)
}

// parseValue reads a YAML (or JSON) value from a CLI argument.
func parseValue(arg string) (interface{}, error) {
	var v interface{}
	if err := yaml.Unmarshal([]byte(arg), &v); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}

	return stringKeys(v), nil
}

// stringKeys converts YAML maps to string keyed ones.
func stringKeys(v interface{}) interface{} {
	switch value := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(value))
		for key, item := range value {
			out[fmt.Sprint(key)] = stringKeys(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(value))
		for _, item := range value {
			out = append(out, stringKeys(item))
		}
		return out
	}

	return v
}

// formatValue renders a mirror, or a plain value, as YAML.
func formatValue(v interface{}) string {
	data, err := yaml.Marshal(mirror.CoerceToRemote(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	return string(data)
}

func mustGetString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		logrus.Fatalf("%s flag: %v", name, err)
	}
	return v
}

func mustGetInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		logrus.Fatalf("%s flag: %v", name, err)
	}
	return v
}

func mustGetUint32(cmd *cobra.Command, name string) uint32 {
	v, err := cmd.Flags().GetUint32(name)
	if err != nil {
		logrus.Fatalf("%s flag: %v", name, err)
	}
	return v
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		logrus.Fatalf("%s flag: %v", name, err)
	}
	return v
}
