// ABOUTME: Admin CLI for the updoot recommendation server
// ABOUTME: Manages limits and moderates comments over the HTTP API

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
)

const banner = `
                 _             _              _           _
 _   _ _ __   __| | ___   ___ | |_        __ _ __| |_ __ ___ (_)_ __
| | | | '_ \ / _' |/ _ \ / _ \| __|_____ / _' |/ _' | '_ ' _ \| | '_ \
| |_| | |_) | (_| | (_) | (_) | |_|_____| (_| | (_| | | | | | | | | | |
 \__,_| .__/ \__,_|\___/ \___/ \__|      \__,_|\__,_|_| |_| |_|_|_| |_|
      |_|
`

const actorHeader = "X-Updoot-Actor"

// cliConfig is read from ~/.config/updoot/admin.toml; the environment
// overrides individual fields.
type cliConfig struct {
	ServerURL string `toml:"server_url"`
	RootPath  string `toml:"root_path"`
	ActorID   string `toml:"actor_id"`
	TimeoutMS int    `toml:"timeout_ms"`
}

func loadCLIConfig() cliConfig {
	cfg := cliConfig{
		ServerURL: "http://localhost:8080",
		RootPath:  "/updoot",
		TimeoutMS: 5000,
	}

	path := os.Getenv("UPDOOT_ADMIN_CONFIG")
	if path == "" {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			if homeDir, err := os.UserHomeDir(); err == nil {
				configDir = filepath.Join(homeDir, ".config")
			}
		}
		if configDir != "" {
			path = filepath.Join(configDir, "updoot", "admin.toml")
		}
	}
	if path != "" {
		// A missing file just means defaults + environment.
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			color.Yellow("Warning: ignoring %s: %v\n", path, err)
		}
	}

	if v := os.Getenv("UPDOOT_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("UPDOOT_ROOT_PATH"); v != "" {
		cfg.RootPath = v
	}
	if v := os.Getenv("UPDOOT_ADMIN_ACTOR"); v != "" {
		cfg.ActorID = v
	}

	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	cfg.RootPath = "/" + strings.Trim(cfg.RootPath, "/")
	return cfg
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := loadCLIConfig()
	client := &apiClient{
		base:  cfg.ServerURL + cfg.RootPath,
		actor: cfg.ActorID,
		http:  &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "settings":
		err = cmdSettings(client, args)
	case "recs":
		err = cmdRecs(client, args)
	case "comments":
		err = cmdComments(client, args)
	case "health":
		err = cmdHealth(client)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: updoot-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  settings                      Show the current limits")
	fmt.Println("  settings set-global <n>       Set the global recommendation limit (0 = unlimited)")
	fmt.Println("  settings set-user <id> <n>    Set a per-user limit override (0 = unlimited)")
	fmt.Println("  settings clear-user <id>      Remove a per-user limit override")
	fmt.Println("  recs [itemId]                 List recommendations, optionally for one item")
	fmt.Println("  comments                      List all comments")
	fmt.Println("  comments delete <id>          Delete a comment by ID")
	fmt.Println("  comments purge-user <userId>  Delete every comment by a user")
	fmt.Println("  health                        Check server health")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  UPDOOT_SERVER_URL     Server base URL (default: http://localhost:8080)")
	fmt.Println("  UPDOOT_ROOT_PATH      API root path (default: /updoot)")
	fmt.Println("  UPDOOT_ADMIN_ACTOR    Actor ID sent on admin requests (required)")
	fmt.Println("  UPDOOT_ADMIN_CONFIG   Config file path (default: ~/.config/updoot/admin.toml)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  export UPDOOT_ADMIN_ACTOR=\"3fa1b2c4...\"")
	fmt.Println("  updoot-admin settings")
	fmt.Println("  updoot-admin settings set-global 50")
	fmt.Println("  updoot-admin comments purge-user 8d2e91aa")
	fmt.Println()
}

// apiClient is a thin wrapper over the server's HTTP API.
type apiClient struct {
	base  string
	actor string
	http  *http.Client
}

func (c *apiClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.actor != "" {
		req.Header.Set(actorHeader, c.actor)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", c.base+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("status %d from %s", resp.StatusCode, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

type settingsPayload struct {
	GlobalLimit  int            `json:"globalLimit"`
	UserLimits   map[string]int `json:"userLimits,omitempty"`
	UserID       string         `json:"userId,omitempty"`
	PerUserLimit int            `json:"perUserLimit,omitempty"`
	ClearUser    bool           `json:"clearUser,omitempty"`
}

func cmdSettings(c *apiClient, args []string) error {
	if len(args) == 0 {
		return showSettings(c)
	}

	var current settingsPayload
	switch args[0] {
	case "set-global":
		if len(args) != 2 {
			return fmt.Errorf("usage: settings set-global <n>")
		}
		limit, err := strconv.Atoi(args[1])
		if err != nil || limit < 0 {
			return fmt.Errorf("limit must be a non-negative integer")
		}
		if err := c.do(http.MethodPost, "/admin/settings", settingsPayload{GlobalLimit: limit}, nil); err != nil {
			return err
		}
	case "set-user":
		if len(args) != 3 {
			return fmt.Errorf("usage: settings set-user <id> <n>")
		}
		limit, err := strconv.Atoi(args[2])
		if err != nil || limit < 0 {
			return fmt.Errorf("limit must be a non-negative integer")
		}
		if err := c.do(http.MethodGet, "/admin/settings", nil, &current); err != nil {
			return err
		}
		req := settingsPayload{GlobalLimit: current.GlobalLimit, UserID: args[1], PerUserLimit: limit}
		if err := c.do(http.MethodPost, "/admin/settings", req, nil); err != nil {
			return err
		}
	case "clear-user":
		if len(args) != 2 {
			return fmt.Errorf("usage: settings clear-user <id>")
		}
		if err := c.do(http.MethodGet, "/admin/settings", nil, &current); err != nil {
			return err
		}
		req := settingsPayload{GlobalLimit: current.GlobalLimit, UserID: args[1], ClearUser: true}
		if err := c.do(http.MethodPost, "/admin/settings", req, nil); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown settings subcommand: %s", args[0])
	}

	return showSettings(c)
}

func showSettings(c *apiClient) error {
	var settings settingsPayload
	if err := c.do(http.MethodGet, "/admin/settings", nil, &settings); err != nil {
		return err
	}

	fmt.Print("Global limit: ")
	if settings.GlobalLimit <= 0 {
		fmt.Println("unlimited")
	} else {
		fmt.Println(settings.GlobalLimit)
	}

	if len(settings.UserLimits) == 0 {
		fmt.Println("No per-user overrides")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  USER\tLIMIT")
	fmt.Fprintln(w, "  ----\t-----")
	for userID, limit := range settings.UserLimits {
		if limit <= 0 {
			fmt.Fprintf(w, "  %s\tunlimited\n", userID)
		} else {
			fmt.Fprintf(w, "  %s\t%d\n", userID, limit)
		}
	}
	return w.Flush()
}

type recommendationPayload struct {
	UserID   string `json:"userId"`
	ItemID   string `json:"itemId"`
	Username string `json:"username"`
}

func cmdRecs(c *apiClient, args []string) error {
	path := "/recommendations"
	if len(args) == 1 && args[0] != "list" {
		path = "/recommendations/" + args[0]
	} else if len(args) > 1 {
		return fmt.Errorf("usage: recs [itemId]")
	}

	var recs []recommendationPayload
	if err := c.do(http.MethodGet, path, nil, &recs); err != nil {
		return err
	}

	if len(recs) == 0 {
		fmt.Println("No recommendations")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ITEM\tUSER\tNAME")
	fmt.Fprintln(w, "  ----\t----\t----")
	for _, r := range recs {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", r.ItemID, r.UserID, r.Username)
	}
	return w.Flush()
}

type commentPayload struct {
	ID       int64  `json:"id"`
	UserID   string `json:"userId"`
	ItemID   string `json:"itemId"`
	Username string `json:"username"`
	Comment  string `json:"comment"`
}

func cmdComments(c *apiClient, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		var comments []commentPayload
		if err := c.do(http.MethodGet, "/admin/comments", nil, &comments); err != nil {
			return err
		}
		if len(comments) == 0 {
			fmt.Println("No comments")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tITEM\tUSER\tNAME\tCOMMENT")
		fmt.Fprintln(w, "  --\t----\t----\t----\t-------")
		for _, cm := range comments {
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\n",
				cm.ID, cm.ItemID, cm.UserID, cm.Username, truncate(cm.Comment, 48))
		}
		return w.Flush()
	}

	switch args[0] {
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: comments delete <id>")
		}
		if _, err := strconv.ParseInt(args[1], 10, 64); err != nil {
			return fmt.Errorf("comment id must be numeric")
		}
		if err := c.do(http.MethodDelete, "/admin/comments/"+args[1], nil, nil); err != nil {
			return err
		}
		fmt.Println("Comment deleted")
		return nil
	case "purge-user":
		if len(args) != 2 {
			return fmt.Errorf("usage: comments purge-user <userId>")
		}
		if err := c.do(http.MethodDelete, "/admin/comments/user/"+args[1], nil, nil); err != nil {
			return err
		}
		fmt.Printf("Comments deleted for user %s\n", args[1])
		return nil
	default:
		return fmt.Errorf("unknown comments subcommand: %s", args[0])
	}
}

func cmdHealth(c *apiClient) error {
	if err := c.do(http.MethodGet, "/health", nil, nil); err != nil {
		return err
	}
	green := color.New(color.FgGreen)
	green.Println("healthy")
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
