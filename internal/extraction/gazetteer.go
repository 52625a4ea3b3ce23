package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/voicetask/internal/logging"
)

// ErrInvalidGazetteer indicates a gazetteer file that could not be parsed.
var ErrInvalidGazetteer = errors.New("invalid gazetteer file")

// EntityKind classifies a capitalized name.
type EntityKind int

const (
	EntityUnknown EntityKind = iota
	EntityPlace
	EntityOrganization
)

func (k EntityKind) String() string {
	switch k {
	case EntityPlace:
		return "place"
	case EntityOrganization:
		return "organization"
	default:
		return "unknown"
	}
}

// GazetteerProvider supplies the gazetteer in effect for one analysis.
type GazetteerProvider interface {
	Current() *Gazetteer
}

// Gazetteer is an immutable lexicon of place and organization names plus
// words that are capitalized in task text without being names.
type Gazetteer struct {
	places        map[string]struct{}
	organizations map[string]struct{}
	ignored       map[string]struct{}
}

// GazetteerFile is the TOML layout of a gazetteer extension file:
//
//	places = ["Springfield", "Shelbyville"]
//	organizations = ["Acme", "Initech"]
//	ignore = ["Standup", "Sprint"]
type GazetteerFile struct {
	Places        []string `toml:"places"`
	Organizations []string `toml:"organizations"`
	Ignore        []string `toml:"ignore"`
}

var builtinPlaces = []string{
	"africa", "america", "asia", "europe", "usa", "us", "uk", "canada", "mexico",
	"england", "scotland", "ireland", "wales", "france", "germany", "spain",
	"portugal", "italy", "greece", "netherlands", "belgium", "switzerland",
	"austria", "sweden", "norway", "denmark", "finland", "poland", "russia",
	"china", "japan", "korea", "india", "brazil", "argentina", "australia",
	"new zealand", "egypt", "kenya", "nigeria", "israel", "turkey",
	"new york", "los angeles", "san francisco", "san diego", "san jose",
	"chicago", "boston", "seattle", "portland", "austin", "dallas", "houston",
	"denver", "phoenix", "miami", "atlanta", "orlando", "las vegas",
	"philadelphia", "detroit", "nashville", "brooklyn", "manhattan",
	"washington", "london", "paris", "berlin", "madrid", "rome", "milan",
	"amsterdam", "dublin", "lisbon", "vienna", "prague", "stockholm", "oslo",
	"tokyo", "beijing", "shanghai", "hong kong", "singapore", "seoul",
	"mumbai", "delhi", "sydney", "melbourne", "toronto", "vancouver",
	"montreal", "dubai", "cairo",
	"california", "texas", "florida", "ohio", "georgia", "virginia",
	"oregon", "nevada", "arizona", "colorado", "michigan", "illinois",
	"massachusetts", "pennsylvania", "carolina", "north carolina",
	"south carolina", "new jersey", "alaska", "hawaii",
	"downtown", "uptown", "midtown",
}

var builtinOrganizations = []string{
	"google", "microsoft", "apple", "amazon", "facebook", "meta", "netflix",
	"tesla", "ibm", "oracle", "intel", "nvidia", "adobe", "salesforce",
	"twitter", "linkedin", "github", "slack", "zoom", "spotify", "uber",
	"lyft", "airbnb", "paypal", "walmart", "target", "costco", "kroger",
	"safeway", "starbucks", "mcdonalds", "mcdonald's", "whole foods",
	"trader joe's", "trader joes", "home depot", "ikea", "best buy", "cvs",
	"walgreens", "fedex", "ups", "usps", "dhl", "delta", "united",
	"southwest", "american airlines", "bank of america",
	"wells fargo", "citibank", "dmv", "irs", "nasa", "fbi", "cia", "un",
	"nhs", "harvard", "stanford", "mit", "yale", "princeton", "oxford",
	"cambridge", "berkeley",
}

// Trailing words that mark a multi-word name as a place or organization.
var placeSuffixes = []string{
	"street", "st", "avenue", "ave", "road", "rd", "boulevard", "blvd",
	"lane", "drive", "park", "city", "county", "airport", "station", "mall",
	"square", "beach", "lake", "river", "mountain", "island", "bridge",
}

var organizationSuffixes = []string{
	"inc", "corp", "corporation", "llc", "ltd", "co", "company", "bank",
	"university", "college", "school", "academy", "hospital", "clinic",
	"institute", "foundation", "group", "labs", "store", "market",
	"pharmacy", "cafe", "restaurant", "hotel", "gym", "center", "centre",
	"office", "department", "agency",
}

// Words that start a capitalized run without being part of a name.
var builtinIgnored = []string{
	"i", "me", "my", "we", "our", "you", "your", "he", "she", "they", "it",
	"the", "a", "an", "this", "that", "these", "those", "and", "or", "but",
	"please", "also", "then", "need", "needs", "must", "should", "don't",
	"dont", "make", "sure", "remember", "reminder", "todo", "to", "note",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
	"sunday", "january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
	"today", "tonight", "tomorrow", "next", "noon", "midnight",
	"urgent", "important", "asap", "critical", "high", "low", "medium",
	"priority", "whenever", "eventually", "due", "deadline", "by", "before",
	"call", "email", "meet", "buy", "finish", "complete", "review", "send",
	"write", "read", "schedule", "book", "pay", "fix", "prepare", "submit",
	"remind", "check", "update", "clean", "study", "plan", "contact",
	"organize", "create", "visit", "pick", "get", "go", "take", "ask",
	"talk", "follow", "set", "order", "return", "bring", "drop", "learn",
	"research", "discuss", "draft", "travel", "shop", "purchase",
	"meeting", "conference", "report", "document", "gym", "exercise",
	"doctor", "appointment", "trip", "flight", "hotel", "with", "about",
	"see", "fly", "drive", "walk", "run", "start", "stop", "open", "move",
	"lunch", "dinner", "breakfast", "coffee", "team", "project", "party",
	"birthday", "groceries",
	"mr", "mrs", "ms", "dr",
}

var titles = map[string]struct{}{"mr": {}, "mrs": {}, "ms": {}, "dr": {}}

// DefaultGazetteer returns the built-in gazetteer.
func DefaultGazetteer() *Gazetteer {
	return newGazetteer(GazetteerFile{})
}

func newGazetteer(extra GazetteerFile) *Gazetteer {
	g := &Gazetteer{
		places:        make(map[string]struct{}),
		organizations: make(map[string]struct{}),
		ignored:       make(map[string]struct{}),
	}
	addAll(g.places, builtinPlaces, extra.Places)
	addAll(g.organizations, builtinOrganizations, extra.Organizations)
	addAll(g.ignored, builtinIgnored, extra.Ignore)
	return g
}

func addAll(set map[string]struct{}, lists ...[]string) {
	for _, list := range lists {
		for _, name := range list {
			if key := normalizeName(name); key != "" {
				set[key] = struct{}{}
			}
		}
	}
}

// LoadGazetteer returns the built-in gazetteer extended by the TOML file at
// path. An empty path yields the built-in gazetteer.
func LoadGazetteer(path string) (*Gazetteer, error) {
	if path == "" {
		return DefaultGazetteer(), nil
	}
	var file GazetteerFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading gazetteer: %w", err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidGazetteer, path, err)
	}
	return newGazetteer(file), nil
}

// Current returns g itself, so a fixed gazetteer is its own provider.
func (g *Gazetteer) Current() *Gazetteer {
	return g
}

// Classify reports whether name is a known place or organization.
func (g *Gazetteer) Classify(name string) EntityKind {
	key := normalizeName(name)
	if key == "" {
		return EntityUnknown
	}
	if _, ok := g.places[key]; ok {
		return EntityPlace
	}
	if _, ok := g.organizations[key]; ok {
		return EntityOrganization
	}

	words := strings.Fields(key)
	if len(words) > 1 {
		last := words[len(words)-1]
		if containsWord(placeSuffixes, last) {
			return EntityPlace
		}
		if containsWord(organizationSuffixes, last) {
			return EntityOrganization
		}
	}
	return EntityUnknown
}

// IsIgnored reports whether word is never part of a contact name.
func (g *Gazetteer) IsIgnored(word string) bool {
	_, ok := g.ignored[normalizeName(word)]
	return ok
}

// Size returns the number of place and organization entries.
func (g *Gazetteer) Size() int {
	return len(g.places) + len(g.organizations)
}

func isTitle(word string) bool {
	_, ok := titles[normalizeName(word)]
	return ok
}

func containsWord(list []string, word string) bool {
	for _, w := range list {
		if w == word {
			return true
		}
	}
	return false
}

// normalizeName lowercases, collapses whitespace and drops trailing
// punctuation and possessives.
func normalizeName(name string) string {
	name = strings.ToLower(strings.Join(strings.Fields(name), " "))
	name = strings.TrimRight(name, ".,;:!?")
	name = strings.TrimSuffix(name, "'s")
	return strings.TrimSuffix(name, "’s")
}

// GazetteerWatcher reloads a gazetteer file whenever it changes.
type GazetteerWatcher struct {
	path    string
	current atomic.Pointer[Gazetteer]
	watcher *fsnotify.Watcher
	logger  *logging.Logger
	stop    chan struct{}
	done    chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// WatchGazetteer loads path and starts watching its directory. A file that
// fails to parse on reload leaves the previous gazetteer in place.
func WatchGazetteer(ctx context.Context, path string, logger *logging.Logger) (*GazetteerWatcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	g, err := LoadGazetteer(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating gazetteer watcher: %w", err)
	}
	// Editors replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	w := &GazetteerWatcher{
		path:    filepath.Clean(path),
		watcher: watcher,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	w.current.Store(g)

	go w.run(ctx)
	return w, nil
}

// Current returns the most recently loaded gazetteer.
func (w *GazetteerWatcher) Current() *Gazetteer {
	return w.current.Load()
}

// Close stops watching. It is safe to call more than once.
func (w *GazetteerWatcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.stop)
		w.closeErr = w.watcher.Close()
		<-w.done
	})
	return w.closeErr
}

func (w *GazetteerWatcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload(ctx)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "gazetteer watcher error", zap.Error(err))
		}
	}
}

func (w *GazetteerWatcher) reload(ctx context.Context) {
	g, err := LoadGazetteer(w.path)
	if err != nil {
		w.logger.Warn(ctx, "gazetteer reload failed, keeping previous", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.current.Store(g)
	w.logger.Info(ctx, "gazetteer reloaded", zap.String("path", w.path), zap.Int("entries", g.Size()))
}

var (
	_ GazetteerProvider = (*Gazetteer)(nil)
	_ GazetteerProvider = (*GazetteerWatcher)(nil)
)
