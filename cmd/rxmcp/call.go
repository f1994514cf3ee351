package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"rxmcp/internal/jsonrpc"
	"rxmcp/internal/server"
)

var callArgs string

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Run one tool call and print the JSON-RPC response",
	Example: `  rxmcp call search_drug_shortages --args '{"drug_name":"amoxicillin"}'
  rxmcp call get_medication_profile --args '{"drug_identifier":"Lipitor","identifier_type":"brand"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callArgs, "args", "{}", "tool arguments as a JSON object")
}

func runCall(cmd *cobra.Command, args []string) error {
	var arguments map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(callArgs)), &arguments); err != nil {
		return fmt.Errorf("--args must be a JSON object: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel, cmd.ErrOrStderr())

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	}()

	req, err := jsonrpc.NewRequest("tools/call", map[string]any{
		"name":      args[0],
		"arguments": arguments,
	}, jsonrpc.NewIDInt(1))
	if err != nil {
		return err
	}
	request, err := req.Bytes()
	if err != nil {
		return err
	}

	reply := srv.Dispatcher().HandleMessage(cmd.Context(), request)

	var out bytes.Buffer
	if err := json.Indent(&out, reply, "", "  "); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.String())
	return nil
}
