package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ashureev/startup-navigator/internal/catalog"
	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/wizard"
)

var (
	formFile    string
	catalogFile string
)

// healthCmd checks the backend health endpoint
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the analysis backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := newClient().HealthCheck(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend unhealthy: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", apiURL, st.Status)
		return nil
	},
}

// requestCmd prints the payload a form would produce
var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Print the analysis request built from a form file",
	RunE: func(cmd *cobra.Command, args []string) error {
		form, err := readForm(cmd.InOrStdin())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), wizard.BuildRequest(form))
	},
}

// validateCmd replays the wizard's step checks against a form file
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Report which wizard steps a form file would fail",
	RunE: func(cmd *cobra.Command, args []string) error {
		form, err := readForm(cmd.InOrStdin())
		if err != nil {
			return err
		}
		cat, err := catalog.Load(catalogFile)
		if err != nil {
			return err
		}
		return validateForm(cmd.OutOrStdout(), wizard.NewFlow(cat), form)
	},
}

// submitCmd sends one analysis request and prints the report
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send the request built from a form file and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		form, err := readForm(cmd.InOrStdin())
		if err != nil {
			return err
		}
		requestID := uuid.NewString()
		fmt.Fprintf(cmd.ErrOrStderr(), "submitting %s (timeout %s)\n", requestID, submitTimeout)

		report, err := newClient().Submit(cmd.Context(), wizard.BuildRequest(form), requestID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	for _, c := range []*cobra.Command{requestCmd, validateCmd, submitCmd} {
		c.Flags().StringVarP(&formFile, "file", "f", "-", "Form YAML file (- for stdin)")
	}
	validateCmd.Flags().StringVar(&catalogFile, "catalog", "", "Catalog YAML file (default: embedded)")
}

// readForm decodes the form file named by --file. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func readForm(stdin io.Reader) (domain.FormRecord, error) {
	var data []byte
	var err error
	if formFile == "" || formFile == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(formFile)
	}
	if err != nil {
		return domain.FormRecord{}, fmt.Errorf("read form: %w", err)
	}
	return parseForm(data)
}

func parseForm(data []byte) (domain.FormRecord, error) {
	form := domain.NewFormRecord()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&form); err != nil && !errors.Is(err, io.EOF) {
		return domain.FormRecord{}, fmt.Errorf("parse form: %w", err)
	}
	return form, nil
}

func validateForm(w io.Writer, flow *wizard.Flow, form domain.FormRecord) error {
	failed := 0
	for s := wizard.StepProfile; s < wizard.StepSummary; s++ {
		err := flow.Validate(s, form)
		if err == nil {
			fmt.Fprintf(w, "ok    %-2d %s\n", int(s), s.Name())
			continue
		}
		var verr *wizard.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		failed++
		fmt.Fprintf(w, "FAIL  %-2d %s: %s (%s)\n", int(s), s.Name(), verr.Message, verr.Error())
	}
	if failed > 0 {
		return fmt.Errorf("%d step(s) incomplete", failed)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
