// Word catalog for the imposter game.
//
// Each entry pairs the real word with a plausible decoy shown to imposters
// in different_word mode, plus a hint imposters get in either mode.

package main

import (
	"crypto/rand"
	"sort"
)

type WordEntry struct {
	Word  string
	Decoy string
	Hint  string
}

var wordCatalog = map[string][]WordEntry{
	"Places": {
		{Word: "Beach", Decoy: "Desert", Hint: "Natural outdoor location"},
		{Word: "Airport", Decoy: "Railway Station", Hint: "Travel hub"},
		{Word: "Mountain", Decoy: "Hill", Hint: "Elevated landform"},
		{Word: "Library", Decoy: "Museum", Hint: "Public building for knowledge"},
		{Word: "Restaurant", Decoy: "Cafe", Hint: "Place to eat"},
		{Word: "Hospital", Decoy: "Clinic", Hint: "Medical facility"},
		{Word: "Park", Decoy: "Garden", Hint: "Outdoor recreation area"},
		{Word: "School", Decoy: "University", Hint: "Educational institution"},
	},
	"Movies": {
		{Word: "Inception", Decoy: "Interstellar", Hint: "Christopher Nolan film"},
		{Word: "Titanic", Decoy: "Poseidon", Hint: "Disaster movie on water"},
		{Word: "Jaws", Decoy: "The Meg", Hint: "Ocean creature thriller"},
		{Word: "Avatar", Decoy: "Valerian", Hint: "Sci-fi visual spectacle"},
		{Word: "The Matrix", Decoy: "Ready Player One", Hint: "Virtual reality film"},
		{Word: "Frozen", Decoy: "Tangled", Hint: "Disney animated musical"},
	},
	"Food": {
		{Word: "Pizza", Decoy: "Burger", Hint: "Fast food item"},
		{Word: "Sushi", Decoy: "Sashimi", Hint: "Japanese cuisine"},
		{Word: "Pasta", Decoy: "Noodles", Hint: "Grain-based dish"},
		{Word: "Taco", Decoy: "Burrito", Hint: "Mexican food"},
		{Word: "Cake", Decoy: "Pie", Hint: "Baked dessert"},
		{Word: "Ice Cream", Decoy: "Frozen Yogurt", Hint: "Cold dessert"},
	},
	"Animals": {
		{Word: "Lion", Decoy: "Tiger", Hint: "Big cat"},
		{Word: "Elephant", Decoy: "Rhino", Hint: "Large land mammal"},
		{Word: "Dolphin", Decoy: "Whale", Hint: "Marine mammal"},
		{Word: "Eagle", Decoy: "Hawk", Hint: "Bird of prey"},
		{Word: "Snake", Decoy: "Lizard", Hint: "Reptile"},
		{Word: "Butterfly", Decoy: "Moth", Hint: "Flying insect"},
	},
	"Sports": {
		{Word: "Basketball", Decoy: "Volleyball", Hint: "Team ball sport"},
		{Word: "Tennis", Decoy: "Badminton", Hint: "Racket sport"},
		{Word: "Soccer", Decoy: "Hockey", Hint: "Field team sport"},
		{Word: "Swimming", Decoy: "Diving", Hint: "Water sport"},
		{Word: "Boxing", Decoy: "Wrestling", Hint: "Combat sport"},
		{Word: "Golf", Decoy: "Cricket", Hint: "Sport with a ball and stick"},
	},
}

// categoryNames returns all catalog categories in stable order.
func categoryNames() []string {
	names := make([]string, 0, len(wordCatalog))
	for name := range wordCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validCategory(name string) bool {
	_, ok := wordCatalog[name]
	return ok
}

// randIndex picks a uniform-ish index in [0, n) using crypto/rand,
// the same source room codes are generated from.
func randIndex(n int) int {
	if n <= 1 {
		return 0
	}
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return int(b[0]) % n
}

// pickWord resolves "random" to a concrete category and picks one entry.
func pickWord(category string) (string, WordEntry) {
	if category == categoryRandom {
		names := categoryNames()
		category = names[randIndex(len(names))]
	}
	entries := wordCatalog[category]
	return category, entries[randIndex(len(entries))]
}
