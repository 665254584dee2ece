package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/urfave/cli/v3"
)

// serviceRequest performs a request against a running download service and
// decodes the JSON response body.
func (r *Runner) serviceRequest(ctx context.Context, method, base, path string) (any, int, error) {
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request to download service failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	var data any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, resp.StatusCode, fmt.Errorf("invalid JSON response: %s", string(body))
		}
	}
	return data, resp.StatusCode, nil
}

func (r *Runner) serviceURL(cmd *cli.Command) string {
	if base := cmd.String("server"); base != "" {
		return base
	}
	return fmt.Sprintf("http://%s:%d", r.config.Server.Host, r.config.Server.Port)
}

func serviceDetail(data any) string {
	if m, ok := data.(map[string]any); ok {
		if detail, ok := m["detail"].(string); ok {
			return detail
		}
	}
	return fmt.Sprintf("%v", data)
}

// StatusDownload fetches a job record from a running service.
func (r *Runner) StatusDownload(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("download id is required")
	}

	data, code, err := r.serviceRequest(ctx, http.MethodGet, r.serviceURL(cmd), "/status/"+id)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("status %d: %s", code, serviceDetail(data))
	}
	return r.writeJSON(data, true)
}

// CancelDownload cancels a job on a running service.
func (r *Runner) CancelDownload(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("download id is required")
	}

	data, code, err := r.serviceRequest(ctx, http.MethodDelete, r.serviceURL(cmd), "/download/"+id)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("status %d: %s", code, serviceDetail(data))
	}

	r.writePlain("✓ Download %s cancelled\n", id)
	return nil
}

// PlaylistDownload fetches the playlist path of a completed album job.
func (r *Runner) PlaylistDownload(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("download id is required")
	}

	data, code, err := r.serviceRequest(ctx, http.MethodGet, r.serviceURL(cmd), "/download/"+id+"/playlist")
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("status %d: %s", code, serviceDetail(data))
	}
	return r.writeJSON(data, true)
}

func serverFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Base URL of a running download service (defaults to config host/port)",
	}
}

// statusCommand queries a job on a running service
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check the status of a download",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags:  []cli.Flag{serverFlag()},
		Action: r.StatusDownload,
	}
}

// cancelCommand cancels a job on a running service
func cancelCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cancel",
		Usage: "Cancel an active download",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags:  []cli.Flag{serverFlag()},
		Action: r.CancelDownload,
	}
}

// playlistCommand fetches the playlist path of a completed album job
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Show the playlist file for a completed album download",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags:  []cli.Flag{serverFlag()},
		Action: r.PlaylistDownload,
	}
}
