package housekeeping

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lbc-bureaux-scraper/utils"
)

const (
	summarySamples    = 3
	maxRenameAttempts = 1000
)

// Result counts what one pass did.
type Result struct {
	MovedCSV  int
	MovedLogs int
	Removed   int
	Failures  int
}

// Organizer tidies a project root: CSV exports and logs lying at the top
// level are moved into their folders and temp artifacts are deleted.
type Organizer struct {
	root   string
	policy Policy
	out    io.Writer
	logger *utils.Logger
	now    func() time.Time
}

// NewOrganizer creates an Organizer for root. Progress is printed to out.
func NewOrganizer(root string, policy Policy, out io.Writer, logger *utils.Logger) *Organizer {
	return &Organizer{
		root:   root,
		policy: policy,
		out:    out,
		logger: logger,
		now:    time.Now,
	}
}

// Run performs the full pass and prints a directory summary at the end.
func (o *Organizer) Run() Result {
	var res Result

	fmt.Fprintln(o.out, "🧹 PROJECT CLEANUP")
	fmt.Fprintln(o.out, strings.Repeat("=", 50))
	fmt.Fprintf(o.out, "Date: %s\n\n", o.now().Format("02/01/2006 15:04:05"))

	fmt.Fprintln(o.out, "📦 Step 1: CSV files")
	res.MovedCSV, res.Failures = o.MoveMatching("*.csv", o.policy.ExportsDir)

	fmt.Fprintln(o.out, "\n📋 Step 2: log files")
	moved, failed := o.MoveMatching("*.log", o.policy.LogsDir)
	res.MovedLogs = moved
	res.Failures += failed

	fmt.Fprintln(o.out, "\n🧹 Step 3: temporary files")
	removed, failed := o.CleanTemp()
	res.Removed = removed
	res.Failures += failed

	o.Summary()

	o.logger.Info("[housekeeping] moved %d csv, %d log, removed %d, %d failure(s)",
		res.MovedCSV, res.MovedLogs, res.Removed, res.Failures)
	return res
}

// MoveMatching moves the regular files of the root matching pattern into
// destDir. A name already taken in destDir gets a _moved_<timestamp>
// suffix. It returns how many files were moved and how many failed.
func (o *Organizer) MoveMatching(pattern, destDir string) (moved, failed int) {
	dest := filepath.Join(o.root, destDir)
	info, err := os.Stat(dest)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dest, 0755); err != nil {
			o.logger.Error("[housekeeping] create %s: %v", dest, err)
			return 0, 1
		}
		fmt.Fprintf(o.out, "📁 Created folder: %s/\n", destDir)
	case err != nil:
		o.logger.Error("[housekeeping] stat %s: %v", dest, err)
		return 0, 1
	case !info.IsDir():
		fmt.Fprintf(o.out, "❌ %s exists and is not a folder\n", destDir)
		o.logger.Error("[housekeeping] %s is not a directory", dest)
		return 0, 1
	}

	matches, err := filepath.Glob(filepath.Join(o.root, pattern))
	if err != nil {
		o.logger.Error("[housekeeping] bad pattern %q: %v", pattern, err)
		return 0, 1
	}

	for _, src := range matches {
		info, err := os.Stat(src)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		name := filepath.Base(src)
		target, err := o.freeName(dest, name)
		if err != nil {
			fmt.Fprintf(o.out, "❌ Could not move %s: %v\n", name, err)
			o.logger.Error("[housekeeping] move %s: %v", src, err)
			failed++
			continue
		}
		if filepath.Base(target) != name {
			fmt.Fprintf(o.out, "⚠️  %s already exists, renamed to %s\n", name, filepath.Base(target))
		}

		if err := os.Rename(src, target); err != nil {
			fmt.Fprintf(o.out, "❌ Could not move %s: %v\n", name, err)
			o.logger.Error("[housekeeping] move %s: %v", src, err)
			failed++
			continue
		}
		fmt.Fprintf(o.out, "📦 Moved: %s -> %s\n", name, filepath.Join(destDir, filepath.Base(target)))
		moved++
	}

	if moved == 0 && failed == 0 {
		fmt.Fprintf(o.out, "✅ Nothing matching %s to move\n", pattern)
	} else {
		fmt.Fprintf(o.out, "✅ %d file(s) moved to %s/\n", moved, destDir)
	}
	return moved, failed
}

// freeName returns dir/name, or a _moved_<timestamp> variant if taken. Any
// Stat error other than "does not exist" is returned as is.
func (o *Organizer) freeName(dir, name string) (string, error) {
	target := filepath.Join(dir, name)
	free, err := isFree(target)
	if err != nil {
		return "", err
	}
	if free {
		return target, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	stamp := o.now().Format("20060102_150405")

	target = filepath.Join(dir, fmt.Sprintf("%s_moved_%s%s", stem, stamp, ext))
	for i := 2; i <= maxRenameAttempts; i++ {
		free, err := isFree(target)
		if err != nil {
			return "", err
		}
		if free {
			return target, nil
		}
		target = filepath.Join(dir, fmt.Sprintf("%s_moved_%s_%d%s", stem, stamp, i, ext))
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", name, maxRenameAttempts)
}

func isFree(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return false, nil
	case os.IsNotExist(err):
		return true, nil
	default:
		return false, err
	}
}

// CleanTemp deletes everything matching the policy's temp patterns.
func (o *Organizer) CleanTemp() (removed, failed int) {
	for _, pattern := range o.policy.TempPatterns {
		if strings.HasSuffix(pattern, "/") {
			dir := filepath.Join(o.root, strings.TrimSuffix(pattern, "/"))
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				continue
			}
			if err := os.RemoveAll(dir); err != nil {
				fmt.Fprintf(o.out, "❌ Could not remove %s: %v\n", pattern, err)
				failed++
				continue
			}
			fmt.Fprintf(o.out, "🗑️  Removed folder: %s\n", pattern)
			removed++
			continue
		}

		matches, err := filepath.Glob(filepath.Join(o.root, pattern))
		if err != nil {
			o.logger.Warn("[housekeeping] bad pattern %q: %v", pattern, err)
			continue
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil {
				fmt.Fprintf(o.out, "❌ Could not remove %s: %v\n", filepath.Base(path), err)
				failed++
				continue
			}
			fmt.Fprintf(o.out, "🗑️  Removed file: %s\n", filepath.Base(path))
			removed++
		}
	}

	if removed == 0 {
		fmt.Fprintln(o.out, "✅ No temporary files to clean")
	} else {
		fmt.Fprintf(o.out, "✅ %d temporary file(s)/folder(s) removed\n", removed)
	}
	return removed, failed
}

// Summary prints the content of the summary folders and of the root.
func (o *Organizer) Summary() {
	fmt.Fprintln(o.out, "\n📁 PROJECT LAYOUT AFTER CLEANUP:")
	fmt.Fprintln(o.out, strings.Repeat("=", 50))

	for _, dir := range o.policy.SummaryDirs {
		entries, err := os.ReadDir(filepath.Join(o.root, dir))
		if err != nil {
			fmt.Fprintf(o.out, "📂 %s/ (empty)\n", dir)
			continue
		}
		fmt.Fprintf(o.out, "📂 %s/ (%d file(s))\n", dir, len(entries))
		for i, e := range entries {
			if i == summarySamples {
				fmt.Fprintf(o.out, "   ... and %d more\n", len(entries)-summarySamples)
				break
			}
			fmt.Fprintf(o.out, "   📄 %s\n", e.Name())
		}
	}

	entries, err := os.ReadDir(o.root)
	if err != nil {
		o.logger.Warn("[housekeeping] read root: %v", err)
		return
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	fmt.Fprintf(o.out, "\n📂 Root (%d file(s))\n", len(files))
	for i, name := range files {
		if i == 5 {
			fmt.Fprintf(o.out, "   ... and %d more\n", len(files)-5)
			break
		}
		fmt.Fprintf(o.out, "   📄 %s\n", name)
	}
}
