package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/dicetable/internal/server"
)

type TablesCmd struct {
	Server  string        `kong:"default='http://localhost:8080',help='Server URL'"`
	Timeout time.Duration `kong:"default='5s',help='Request timeout'"`
	JSON    bool          `kong:"help='Print raw JSON'"`
}

func (c *TablesCmd) Run() error {
	u, err := url.Parse(c.Server)
	if err != nil || u.Host == "" {
		u, err = url.Parse("http://" + c.Server)
		if err != nil {
			return fmt.Errorf("invalid server URL: %w", err)
		}
	}
	u.Path = "/tables"

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch tables: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch tables: %s", resp.Status)
	}

	var tables []server.TableSummary
	if err := json.NewDecoder(resp.Body).Decode(&tables); err != nil {
		return fmt.Errorf("decode tables: %w", err)
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tables)
	}
	if len(tables) == 0 {
		fmt.Println("No live tables")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TABLE", "MIN BET", "SEATS", "WATCHERS", "PHASE", "ROUNDS")
	for _, s := range tables {
		t.Row(
			s.ID,
			strconv.FormatInt(s.MinBet, 10),
			fmt.Sprintf("%d/%d", s.Occupied, s.Seats),
			strconv.Itoa(s.Subscribers),
			string(s.Phase),
			strconv.Itoa(s.Rounds),
		)
	}
	fmt.Println(t.Render())
	return nil
}
