// Package dataextract reads and writes player rosters.
package dataextract

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"leaguebalancer/internal/model"
)

var rosterColumns = []string{"Name", "Position", "Skill", "Salary"}

// salaryAliases lists the header names accepted for the salary column.
var salaryAliases = []string{"salary", "salary (€m)", "salary (m)", "salary_m"}

// LoadRoster reads a roster file, choosing the format by extension.
func LoadRoster(path string) ([]model.Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadRosterCSV(f)
	case ".json":
		return ReadRosterJSON(f)
	default:
		return nil, fmt.Errorf("unsupported roster format %q", ext)
	}
}

// ReadRosterCSV parses a header row followed by one player per row. Blank
// rows are skipped; column order is free.
func ReadRosterCSV(in io.Reader) ([]model.Player, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("roster csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read roster csv header: %w", err)
	}

	nameIdx, err := columnIndex(header, "name")
	if err != nil {
		return nil, err
	}
	posIdx, err := columnIndex(header, "position")
	if err != nil {
		return nil, err
	}
	skillIdx, err := columnIndex(header, "skill")
	if err != nil {
		return nil, err
	}
	salaryIdx, err := columnIndex(header, salaryAliases...)
	if err != nil {
		return nil, err
	}

	players := make([]model.Player, 0, 64)
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("read roster csv row %d: %w", row, err)
		}
		if blankRecord(record) {
			continue
		}

		name, err := field(record, nameIdx, row, "name")
		if err != nil {
			return nil, err
		}
		pos, err := field(record, posIdx, row, "position")
		if err != nil {
			return nil, err
		}
		skill, err := floatField(record, skillIdx, row, "skill")
		if err != nil {
			return nil, err
		}
		salary, err := floatField(record, salaryIdx, row, "salary")
		if err != nil {
			return nil, err
		}
		players = append(players, model.Player{
			Name:     name,
			Position: model.Position(pos),
			Skill:    skill,
			Salary:   salary,
		})
	}
	return players, nil
}

// ReadRosterJSON parses a JSON array of players.
func ReadRosterJSON(in io.Reader) ([]model.Player, error) {
	var players []model.Player
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&players); err != nil {
		return nil, fmt.Errorf("decode roster json: %w", err)
	}
	for i := range players {
		players[i].Name = strings.TrimSpace(players[i].Name)
		players[i].Position = model.Position(strings.TrimSpace(string(players[i].Position)))
	}
	return players, nil
}

// WriteRosterCSV writes players with the canonical header.
func WriteRosterCSV(out io.Writer, players []model.Player) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(rosterColumns); err != nil {
		return fmt.Errorf("write roster csv header: %w", err)
	}
	for _, p := range players {
		record := []string{
			p.Name,
			string(p.Position),
			strconv.FormatFloat(p.Skill, 'f', -1, 64),
			strconv.FormatFloat(p.Salary, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write roster csv row %s: %w", p.Name, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush roster csv: %w", err)
	}
	return nil
}

// WriteRosterFile writes players to path as CSV or JSON by extension.
func WriteRosterFile(path string, players []model.Player) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create roster dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create roster file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return WriteRosterCSV(f, players)
	case ".json":
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(players); err != nil {
			return fmt.Errorf("encode roster json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported roster format %q", ext)
	}
}

func columnIndex(header []string, names ...string) (int, error) {
	for i, col := range header {
		got := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		for _, want := range names {
			if got == want {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("roster csv column not found: %s", names[0])
}

func field(record []string, idx, row int, name string) (string, error) {
	if idx >= len(record) {
		return "", fmt.Errorf("roster row %d missing %s", row, name)
	}
	value := strings.TrimSpace(record[idx])
	if value == "" {
		return "", fmt.Errorf("roster row %d has empty %s", row, name)
	}
	return value, nil
}

func floatField(record []string, idx, row int, name string) (float64, error) {
	raw, err := field(record, idx, row, name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse roster %s row %d: %w", name, row, err)
	}
	return value, nil
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
