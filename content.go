package main

// Tier is one of the five ordered buckets an item can be sorted into,
// from Goat (best) down to C.
type Tier string

const (
	TierGoat Tier = "Goat"
	TierS    Tier = "S"
	TierA    Tier = "A"
	TierB    Tier = "B"
	TierC    Tier = "C"
)

// tierPoints is the base score an item earns for being placed in a tier.
var tierPoints = map[Tier]float64{
	TierGoat: 6,
	TierS:    5,
	TierA:    4,
	TierB:    3,
	TierC:    2,
}

// Item is one rankable entry within a tier round.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Round is one themed set of items to be sorted into tiers.
type Round struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// QuizPrompt is a single question/answer pair for the quiz games.
type QuizPrompt struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Content is the static game content a session plays through. It is loaded
// once at startup and never mutated.
type Content struct {
	Rounds       []Round
	InitialsQuiz []QuizPrompt
	ReverseQuiz  []QuizPrompt
}

func defaultContent() *Content {
	return &Content{
		Rounds:       gameRounds,
		InitialsQuiz: initialsQuiz,
		ReverseQuiz:  reverseQuiz,
	}
}

var gameRounds = []Round{
	{
		ID:    "ice_cream",
		Title: "Round 1: Ice Cream",
		Items: []Item{
			{ID: "ic1", Name: "Vanilla Cone", Image: "/assets/items/vanilla-cone.png"},
			{ID: "ic2", Name: "Choco Fudge Bar", Image: "/assets/items/fudge-bar.png"},
			{ID: "ic3", Name: "Strawberry Swirl", Image: "/assets/items/strawberry-swirl.png"},
			{ID: "ic4", Name: "Mint Chip", Image: "/assets/items/mint-chip.png"},
			{ID: "ic5", Name: "Melon Pop", Image: "/assets/items/melon-pop.png"},
			{ID: "ic6", Name: "Cookies & Cream", Image: "/assets/items/cookies-cream.png"},
			{ID: "ic7", Name: "Rocket Pop", Image: "/assets/items/rocket-pop.png"},
			{ID: "ic8", Name: "Mochi Ice", Image: "/assets/items/mochi-ice.png"},
			{ID: "ic9", Name: "Soda Float Bar", Image: "/assets/items/soda-float.png"},
			{ID: "ic10", Name: "Pistachio Scoop", Image: "/assets/items/pistachio.png"},
		},
	},
	{
		ID:    "snacks",
		Title: "Round 2: Late-Night Snacks",
		Items: []Item{
			{ID: "sn1", Name: "Loaded Nachos", Image: "/assets/items/nachos.png"},
			{ID: "sn2", Name: "Fried Chicken", Image: "/assets/items/fried-chicken.png"},
			{ID: "sn3", Name: "Instant Noodles", Image: "/assets/items/instant-noodles.png"},
			{ID: "sn4", Name: "Pizza Slice", Image: "/assets/items/pizza.png"},
			{ID: "sn5", Name: "Cheese Sticks", Image: "/assets/items/cheese-sticks.png"},
			{ID: "sn6", Name: "Tteokbokki", Image: "/assets/items/tteokbokki.png"},
			{ID: "sn7", Name: "Garlic Bread", Image: "/assets/items/garlic-bread.png"},
			{ID: "sn8", Name: "Dumplings", Image: "/assets/items/dumplings.png"},
			{ID: "sn9", Name: "Potato Chips", Image: "/assets/items/chips.png"},
			{ID: "sn10", Name: "Corn Dog", Image: "/assets/items/corn-dog.png"},
		},
	},
	{
		ID:    "ramen",
		Title: "Round 3: Instant Ramen",
		Items: []Item{
			{ID: "rm1", Name: "Classic Spicy", Image: "/assets/items/classic-spicy.png"},
			{ID: "rm2", Name: "Black Bean", Image: "/assets/items/black-bean.png"},
			{ID: "rm3", Name: "Seafood Udon", Image: "/assets/items/seafood-udon.png"},
			{ID: "rm4", Name: "Fire Chicken", Image: "/assets/items/fire-chicken.png"},
			{ID: "rm5", Name: "Carbonara Fire", Image: "/assets/items/carbonara-fire.png"},
			{ID: "rm6", Name: "Cold Sesame", Image: "/assets/items/cold-sesame.png"},
			{ID: "rm7", Name: "Beef Broth", Image: "/assets/items/beef-broth.png"},
			{ID: "rm8", Name: "Kimchi Cup", Image: "/assets/items/kimchi-cup.png"},
			{ID: "rm9", Name: "Tempura Soba", Image: "/assets/items/tempura-soba.png"},
			{ID: "rm10", Name: "Squid Jjamppong", Image: "/assets/items/squid-jjamppong.png"},
		},
	},
}

// initialsQuiz: given two initial letters, teams shout any word matching them.
var initialsQuiz = []QuizPrompt{
	{ID: "h1", Question: "A. M.", Answer: "apple mint, alarm monday, ..."},
	{ID: "h2", Question: "S. C.", Answer: "space cowboy, salt crystal, ..."},
	{ID: "h3", Question: "M. B.", Answer: "moon base, maple bacon, ..."},
	{ID: "h4", Question: "T. F.", Answer: "time flies, tin foil, ..."},
	{ID: "h5", Question: "H. K.", Answer: "house key, high kick, ..."},
	{ID: "h6", Question: "U. D.", Answer: "upside down, umbrella drink, ..."},
	{ID: "h7", Question: "B. N.", Answer: "banana nut, big news, ..."},
	{ID: "h8", Question: "C. G.", Answer: "cool green, card game, ..."},
	{ID: "h9", Question: "P. W.", Answer: "paper wings, pool water, ..."},
	{ID: "h10", Question: "K. L.", Answer: "key lime, kite line, ..."},
}

// reverseQuiz: the prompt is read aloud backwards and teams race to unscramble it.
var reverseQuiz = []QuizPrompt{
	{ID: "p1", Question: "masquerade", Answer: "edareuqsam"},
	{ID: "p2", Question: "personality", Answer: "ytilanosrep"},
	{ID: "p3", Question: "watermelon", Answer: "nolemretaw"},
	{ID: "p4", Question: "lighthouse", Answer: "esuohthgil"},
	{ID: "p5", Question: "trampoline", Answer: "enilopmart"},
	{ID: "p6", Question: "calculator", Answer: "rotaluclac"},
	{ID: "p7", Question: "helicopter", Answer: "retpocileh"},
	{ID: "p8", Question: "lavender", Answer: "redneval"},
	{ID: "p9", Question: "boulevard", Answer: "draveluob"},
	{ID: "p10", Question: "hibernation", Answer: "noitanrebih"},
}
