package words

import (
	"github.com/modularwolf/impostergame.io/internal/domain"
)

// FallbackCategoryID is used when a round is started without choosing a
// category. It draws from the union of every category's word list.
const FallbackCategoryID = "random"

// Category is a labelled, non-empty ordered list of candidate secret words
type Category struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Words []string `json:"words"`
}

// categories is the static word source. Word lists are curated to work
// well for the game: concrete enough that knowers can hint at them,
// broad enough that the imposter can bluff.
var categories = []Category{
	{
		ID:    "animals",
		Label: "Animals",
		Words: []string{
			"tiger", "falcon", "wolf", "panther", "cobra",
			"dolphin", "octopus", "scorpion", "spider", "beetle",
			"penguin", "giraffe", "kangaroo", "hedgehog", "owl",
		},
	},
	{
		ID:    "food",
		Label: "Food & Drinks",
		Words: []string{
			"coffee", "sushi", "burger", "pizza", "taco",
			"chocolate", "vanilla", "cinnamon", "wasabi", "honey",
			"croissant", "noodles", "pancake", "avocado", "lemonade",
		},
	},
	{
		ID:    "places",
		Label: "Places",
		Words: []string{
			"casino", "subway", "rooftop", "alley", "warehouse",
			"temple", "fortress", "pyramid", "bunker", "tower",
			"bridge", "tunnel", "harbor", "factory", "stadium",
		},
	},
	{
		ID:    "objects",
		Label: "Objects",
		Words: []string{
			"diamond", "crystal", "mirror", "blade", "helmet",
			"shield", "compass", "lantern", "whistle", "umbrella",
			"hammer", "anchor", "hourglass", "keyboard", "telescope",
		},
	},
	{
		ID:    "nature",
		Label: "Nature",
		Words: []string{
			"thunder", "lightning", "tornado", "volcano", "glacier",
			"meteor", "eclipse", "aurora", "tsunami", "avalanche",
			"rainbow", "canyon", "geyser", "lagoon", "dune",
		},
	},
}

// Catalog exposes the static category list and random word selection.
// The random source is injected so tests can seed it.
type Catalog struct {
	rng domain.Rand
}

// NewCatalog creates a catalog drawing randomness from rng
func NewCatalog(rng domain.Rand) *Catalog {
	return &Catalog{rng: rng}
}

// Categories returns all categories in display order
func (c *Catalog) Categories() []Category {
	return categories
}

// Get returns the category with the given ID
func (c *Catalog) Get(id string) (Category, bool) {
	for _, cat := range categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Contains reports whether the category holds the given word
func Contains(cat Category, word string) bool {
	for _, w := range cat.Words {
		if w == word {
			return true
		}
	}
	return false
}

// PickWord returns a uniformly random word from the named category.
// An unknown or empty category ID falls back to the union pool. The
// resolved category ID is returned alongside the word.
func (c *Catalog) PickWord(categoryID string) (string, string, error) {
	if categoryID == "" {
		categoryID = FallbackCategoryID
	}

	if categoryID == FallbackCategoryID {
		pool := c.unionPool()
		if len(pool) == 0 {
			return "", "", domain.ErrEmptyWordList
		}
		return FallbackCategoryID, pool[c.rng.Intn(len(pool))], nil
	}

	cat, ok := c.Get(categoryID)
	if !ok {
		// Unknown IDs are not an error for a party game; use the pool.
		return c.PickWord(FallbackCategoryID)
	}
	if len(cat.Words) == 0 {
		return "", "", domain.ErrEmptyWordList
	}
	return cat.ID, cat.Words[c.rng.Intn(len(cat.Words))], nil
}

// PickWordExcluding picks a word from the category that is not in the
// excluded list, falling back to any word if the list is exhausted.
func (c *Catalog) PickWordExcluding(categoryID string, excluded []string) (string, string, error) {
	excludeSet := make(map[string]bool, len(excluded))
	for _, w := range excluded {
		excludeSet[w] = true
	}

	var (
		resolved string
		word     string
		err      error
	)
	for attempts := 0; attempts < 100; attempts++ {
		resolved, word, err = c.PickWord(categoryID)
		if err != nil {
			return "", "", err
		}
		if !excludeSet[word] {
			return resolved, word, nil
		}
	}
	return resolved, word, err
}

func (c *Catalog) unionPool() []string {
	var pool []string
	for _, cat := range categories {
		pool = append(pool, cat.Words...)
	}
	return pool
}
