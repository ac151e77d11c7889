package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ehr/periop/internal/domain/assessment"
)

func assessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess a patient record file offline and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			pretty, _ := cmd.Flags().GetBool("pretty")

			rec, err := loadRecord(path)
			if err != nil {
				return err
			}
			return writeAssessment(cmd.OutOrStdout(), assessment.Assess(rec, nil), pretty)
		},
	}
	cmd.Flags().StringP("file", "f", "", "Patient record in JSON or YAML (required)")
	cmd.Flags().Bool("pretty", false, "Indent the output")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// loadRecord reads a patient record. Files ending in .yaml or .yml are
// decoded as YAML using the same field names as the JSON form.
func loadRecord(path string) (assessment.PatientRecord, error) {
	var rec assessment.PatientRecord

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return rec, fmt.Errorf("parse %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return rec, fmt.Errorf("convert %s: %w", path, err)
		}
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parse %s: %w", path, err)
	}
	return rec, nil
}

func writeAssessment(w io.Writer, a assessment.Assessment, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(a)
}
