package challenge

// Genre is one curated genre slot key.
type Genre struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Genres is the fixed genre vocabulary; one genre slot is created per entry.
var Genres = []Genre{
	{Key: "ACTION", Name: "Action"},
	{Key: "ADVENTURE", Name: "Adventure"},
	{Key: "ARCADE", Name: "Arcade"},
	{Key: "FIGHTING", Name: "Fighting"},
	{Key: "HORROR", Name: "Horror"},
	{Key: "MUSIC_RHYTHM", Name: "Music & Rhythm"},
	{Key: "PLATFORMER", Name: "Platformer"},
	{Key: "PUZZLE", Name: "Puzzle"},
	{Key: "RACING", Name: "Racing"},
	{Key: "RPG", Name: "RPG"},
	{Key: "SHOOTER", Name: "Shooter"},
	{Key: "SIMULATION", Name: "Simulation"},
	{Key: "SPORTS", Name: "Sports"},
	{Key: "STRATEGY", Name: "Strategy"},
	{Key: "SURVIVAL", Name: "Survival"},
	{Key: "VISUAL_NOVEL", Name: "Visual Novel"},
}

func IsGenre(key string) bool {
	for _, g := range Genres {
		if g.Key == key {
			return true
		}
	}
	return false
}

// Letters are the letter slot keys, A through Z.
var Letters = func() []string {
	out := make([]string, 0, 26)
	for r := 'A'; r <= 'Z'; r++ {
		out = append(out, string(r))
	}
	return out
}()

func IsLetter(key string) bool {
	return len(key) == 1 && key[0] >= 'A' && key[0] <= 'Z'
}
