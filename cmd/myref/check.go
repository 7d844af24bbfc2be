package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/myref/internal/library"
)

var (
	checkRename bool
	checkCopy   bool
	checkDryRun bool
)

func init() {
	checkCmd.Flags().BoolVar(&checkRename, "rename", false, "File every entry's files under <filesdir>/<year>/<key> before checking")
	checkCmd.Flags().BoolVarP(&checkCopy, "copy", "c", false, "With --rename, copy files instead of moving them")
	checkCmd.Flags().BoolVar(&checkDryRun, "dry-run", false, "With --rename, report moves without touching files or saving")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify bibliography integrity",
	Long: `Verify bibliography integrity, checking for missing files, entries without files, duplicate keys, and duplicate DOIs.

With --rename, the files of every entry are first moved to
<filesdir>/<year>/<key>.<ext> and the bibliography is saved. Entries that
cannot be renamed are logged and left as they are.`,
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

// Issue types reported by check.
const (
	IssueMissingFile  = "missing_file"
	IssueNoFiles      = "no_files"
	IssueDuplicateKey = "duplicate_key"
	IssueDuplicateDOI = "duplicate_doi"
)

// CheckResult is the response for the check command.
type CheckResult struct {
	Status  string       `json:"status"`
	Entries int          `json:"entries"`
	Renamed int          `json:"renamed,omitempty"`
	Issues  []CheckIssue `json:"issues"`
}

// CheckIssue represents a single issue found during check.
type CheckIssue struct {
	Type     string   `json:"type"`
	ID       string   `json:"id,omitempty"`
	IDs      []string `json:"ids,omitempty"`
	Expected string   `json:"expected,omitempty"`
	DOI      string   `json:"doi,omitempty"`
}

// checkLibrary returns the integrity issues of lib, in key order.
func checkLibrary(lib *library.Library) []CheckIssue {
	issues := []CheckIssue{}

	records := lib.Records()
	for i, r := range records {
		if i > 0 && records[i-1].Key() == r.Key() {
			continue
		}
		var ids []string
		for j := i; j < len(records) && records[j].Key() == r.Key(); j++ {
			ids = append(ids, records[j].ID())
		}
		if len(ids) > 1 {
			issues = append(issues, CheckIssue{Type: IssueDuplicateKey, IDs: ids})
		}
	}

	doiMap := make(map[string][]string)
	for _, r := range records {
		if d := strings.ToLower(r.Field(library.FieldDOI)); d != "" {
			doiMap[d] = append(doiMap[d], r.ID())
		}
	}
	dois := make([]string, 0, len(doiMap))
	for d := range doiMap {
		dois = append(dois, d)
	}
	sort.Strings(dois)
	for _, d := range dois {
		if ids := doiMap[d]; len(ids) > 1 {
			issues = append(issues, CheckIssue{Type: IssueDuplicateDOI, IDs: ids, DOI: d})
		}
	}

	for _, r := range records {
		files := library.GetFiles(r)
		if len(files) == 0 {
			issues = append(issues, CheckIssue{Type: IssueNoFiles, ID: r.ID()})
			continue
		}
		for _, f := range files {
			if _, err := os.Stat(f.Path); os.IsNotExist(err) {
				issues = append(issues, CheckIssue{Type: IssueMissingFile, ID: r.ID(), Expected: f.Path})
			}
		}
	}

	return issues
}

func runCheck(cmd *cobra.Command, args []string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	renamed := 0
	if checkRename {
		// failures are already logged per entry
		renamed, _ = lib.RenameAll(library.RenameOptions{Copy: checkCopy, DryRun: checkDryRun})
		if !checkDryRun {
			if err := lib.Save(); err != nil {
				return err
			}
		}
	}

	issues := checkLibrary(lib)
	status := "ok"
	if len(issues) > 0 {
		status = "issues"
	}

	if !humanOutput {
		return outputJSON(CheckResult{Status: status, Entries: lib.Len(), Renamed: renamed, Issues: issues})
	}

	if checkRename {
		fmt.Printf("Renamed %d files\n\n", renamed)
	}

	if len(issues) == 0 {
		fmt.Printf("Bibliography check: OK\n\n%d entries checked\n", lib.Len())
		return nil
	}
	fmt.Printf("Bibliography check: %d issues found\n\n", len(issues))
	for _, issue := range issues {
		switch issue.Type {
		case IssueMissingFile:
			fmt.Printf("  [WARN] Missing file for %s\n", issue.ID)
			fmt.Printf("         Expected: %s\n\n", issue.Expected)
		case IssueNoFiles:
			fmt.Printf("  [INFO] No files for %s\n\n", issue.ID)
		case IssueDuplicateKey:
			fmt.Printf("  [WARN] Duplicate key: %s\n\n", formatIDList(issue.IDs))
		case IssueDuplicateDOI:
			fmt.Printf("  [WARN] Duplicate DOI %s\n", issue.DOI)
			fmt.Printf("         Found in: %s\n\n", formatIDList(issue.IDs))
		}
	}
	fmt.Printf("%d entries checked\n", lib.Len())
	return nil
}
