package identity

var adjectives = []string{
	"Amber", "Azure", "Bold", "Brave", "Bright", "Calm", "Clever", "Coral",
	"Crimson", "Curious", "Daring", "Eager", "Emerald", "Gentle", "Golden",
	"Happy", "Indigo", "Jade", "Keen", "Lively", "Lucky", "Mellow", "Misty",
	"Noble", "Olive", "Proud", "Quiet", "Rapid", "Ruby", "Sandy", "Scarlet",
	"Silent", "Silver", "Sunny", "Swift", "Teal", "Velvet", "Violet", "Vivid",
	"Wandering", "Wild", "Wise", "Witty", "Zesty",
}

var nouns = []string{
	"Sky", "River", "Falcon", "Breeze", "Canyon", "Cloud", "Comet", "Coyote",
	"Dawn", "Delta", "Dune", "Ember", "Fern", "Finch", "Fox", "Glacier",
	"Harbor", "Hawk", "Heron", "Island", "Lagoon", "Lark", "Lynx", "Meadow",
	"Mesa", "Moon", "Otter", "Owl", "Peak", "Pebble", "Pine", "Rain",
	"Raven", "Reef", "Ridge", "Sparrow", "Star", "Stone", "Storm", "Summit",
	"Tide", "Trail", "Valley", "Wave", "Willow", "Wren",
}
