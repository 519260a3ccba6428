package project

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// ORLibraryBaseURL hosts the Bischoff and Ratcliff thpack files.
const ORLibraryBaseURL = "https://people.brunel.ac.uk/~mastjjb/jeb/orlib/files/"

// ORLibraryURL returns the download URL for a file such as "thpack1.txt".
func ORLibraryURL(name string) string {
	return ORLibraryBaseURL + name
}

// LoadORLibrary loads thpack problems from a local path or an http(s) URL.
func LoadORLibrary(ctx context.Context, source string) ([]model.Problem, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return fetchORLibrary(ctx, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	defer f.Close()
	return ParseORLibrary(f)
}

func fetchORLibrary(ctx context.Context, url string) ([]model.Problem, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: status %s", url, resp.Status)
	}
	return ParseORLibrary(resp.Body)
}

// ParseORLibrary reads the thpack text format:
//
//	number of problems
//	problem number, seed
//	container length, width, height
//	number of box types
//	type, length, flag, width, flag, height, flag, count   (one line per type)
//
// The orientation flags are not used. Values equal box volumes and min counts are zero.
func ParseORLibrary(r io.Reader) ([]model.Problem, error) {
	sc := &tokenScanner{sc: bufio.NewScanner(r)}
	sc.sc.Split(bufio.ScanWords)

	count, err := sc.next("problem count")
	if err != nil {
		return nil, err
	}
	problems := make([]model.Problem, 0, count)
	for i := 0; i < count; i++ {
		p, err := parseORProblem(sc)
		if err != nil {
			return nil, fmt.Errorf("problem %d: %w", i+1, err)
		}
		problems = append(problems, p)
	}
	return problems, nil
}

func parseORProblem(sc *tokenScanner) (model.Problem, error) {
	number, err := sc.next("problem number")
	if err != nil {
		return model.Problem{}, err
	}
	if _, err := sc.next("seed"); err != nil {
		return model.Problem{}, err
	}
	dims, err := sc.nextN("container dimensions", 3)
	if err != nil {
		return model.Problem{}, err
	}
	types, err := sc.next("box type count")
	if err != nil {
		return model.Problem{}, err
	}

	p := model.Problem{
		ID:        strconv.Itoa(number),
		Container: model.Size{Length: dims[0], Width: dims[1], Height: dims[2]},
	}
	for j := 0; j < types; j++ {
		f, err := sc.nextN("box type", 8)
		if err != nil {
			return model.Problem{}, err
		}
		bt := model.NewBoxType(f[0], "", f[1], f[3], f[5], 0, f[7])
		p.BoxTypes = append(p.BoxTypes, bt)
	}
	if err := p.Validate(); err != nil {
		return model.Problem{}, err
	}
	return p, nil
}

type tokenScanner struct {
	sc *bufio.Scanner
}

func (t *tokenScanner) next(what string) (int, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", what, err)
		}
		return 0, fmt.Errorf("unexpected end of input reading %s", what)
	}
	n, err := strconv.Atoi(t.sc.Text())
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, t.sc.Text(), err)
	}
	return n, nil
}

func (t *tokenScanner) nextN(what string, n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		v, err := t.next(what)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
