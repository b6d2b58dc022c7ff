package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
)

const sampleFiles = 5

// Report describes one finished batch for the commit and the pull request.
type Report struct {
	RunID   string
	Success int
	Failed  int
	// Files are the changed source files, relative to the source root.
	Files []string
	// Tree is an optional rendering of the output directory.
	Tree string
}

func (r Report) Branch() string { return "translation-" + r.RunID }

func (r Report) Title() string { return fmt.Sprintf("[Bot] Translation Updates (%s)", r.RunID) }

func (r Report) CommitMessage() string {
	return fmt.Sprintf("feat(translation): batch update %s\n\nFiles processed:\n- Success: %d\n- Failed: %d\n",
		r.RunID, r.Success, r.Failed)
}

var bodyTemplate = template.Must(template.New("body").Parse(`## Translation Report (Run {{.RunID}})

### Statistics
✅ Successfully translated: **{{.Success}} files**
❌ Failed translations: **{{.Failed}} files**

### Changed Files
{{range .Sample}}- ` + "`{{.}}`" + `
{{end}}{{if .More}}- ...(+{{.More}} more files)
{{end}}
### Verification Checklist
1. [ ] Markdown formatting preserved
2. [ ] Code blocks unchanged
3. [ ] Technical terms accurate
4. [ ] URLs functional
{{if .Tree}}
### Output Structure
` + "```" + `
{{.Tree}}
` + "```" + `
{{end}}
> Automatically generated by translation pipeline
`))

// Body renders the pull request description.
func (r Report) Body() (string, error) {
	data := struct {
		Report
		Sample []string
		More   int
	}{Report: r, Sample: r.Files}

	if len(r.Files) > sampleFiles {
		data.Sample = r.Files[:sampleFiles]
		data.More = len(r.Files) - sampleFiles
	}

	var b strings.Builder
	if err := bodyTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return b.String(), nil
}

// Tree renders dir as an indented listing down to maxDepth levels, with
// directories first at every level.
func Tree(dir string, maxDepth int) (string, error) {
	var lines []string
	if err := walkTree(dir, "", maxDepth, &lines); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func walkTree(dir, prefix string, depth int, lines *[]string) error {
	if depth <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].IsDir() && !entries[j].IsDir()
	})

	for i, e := range entries {
		last := i == len(entries)-1
		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}
		if e.IsDir() {
			*lines = append(*lines, prefix+branch+e.Name()+"/")
			if err := walkTree(filepath.Join(dir, e.Name()), prefix+indent, depth-1, lines); err != nil {
				return err
			}
			continue
		}
		*lines = append(*lines, prefix+branch+e.Name())
	}
	return nil
}
