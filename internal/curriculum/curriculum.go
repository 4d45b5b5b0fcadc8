// AngelaMos | 2026
// curriculum.go

// Package curriculum holds the reference data loaded by the seed command:
// the guardians and thirty days of activities.
package curriculum

import (
	"fmt"
	"net/url"

	"github.com/carterperez-dev/mahuru-activation/internal/activity"
	"github.com/carterperez-dev/mahuru-activation/internal/character"
	"github.com/carterperez-dev/mahuru-activation/internal/progress"
)

func Characters() []character.Character {
	return []character.Character{
		{
			ID:                   "tane",
			Name:                 "Tāne",
			Description:          "Guardian of the forest and the birds that live in it.",
			ImageURL:             "/images/characters/tane.png",
			CulturalSignificance: "Tāne separated Ranginui and Papatūānuku, bringing light into the world.",
		},
		{
			ID:                   "tangaroa",
			Name:                 "Tangaroa",
			Description:          "Guardian of the sea and everything in it.",
			ImageURL:             "/images/characters/tangaroa.png",
			CulturalSignificance: "Tangaroa is acknowledged before fishing and voyaging.",
		},
		{
			ID:                   "tawhirimatea",
			Name:                 "Tāwhirimātea",
			Description:          "Guardian of the winds, clouds and storms.",
			ImageURL:             "/images/characters/tawhirimatea.png",
			CulturalSignificance: "Tāwhirimātea stayed with Ranginui and sends the weather in his name.",
		},
		{
			ID:                   "rongo",
			Name:                 "Rongo",
			Description:          "Guardian of cultivated food and of peace.",
			ImageURL:             "/images/characters/rongo.png",
			CulturalSignificance: "Rongo is linked with the kūmara and with making peace after conflict.",
		},
		{
			ID:                   "haumia",
			Name:                 "Haumia-tiketike",
			Description:          "Guardian of wild and uncultivated food.",
			ImageURL:             "/images/characters/haumia.png",
			CulturalSignificance: "Haumia-tiketike is linked with aruhe, the fern root gathered from the land.",
		},
	}
}

type lesson struct {
	theme   string
	word    string
	meaning string
	others  [3]string
	tip     string
}

var lessons = [progress.MaxDay]lesson{
	{"Mihi", "Kia ora", "Hello", [3]string{"Goodbye", "Thank you", "Sorry"}, "Kia ora also means thank you."},
	{"Mihi", "Tēnā koe", "Hello (to one person)", [3]string{"Hello (to many)", "Good night", "See you later"}, "Use tēnā kōrua for two and tēnā koutou for three or more."},
	{"Mihi", "Ka kite anō", "See you again", [3]string{"Welcome", "Good morning", "How are you?"}, "Say it as you leave."},
	{"Whānau", "Whānau", "Family", [3]string{"House", "Friend", "School"}, "Whānau includes your wider family."},
	{"Whānau", "Whaea", "Mother, aunt", [3]string{"Father", "Child", "Grandparent"}, "Whaea is also used for female teachers."},
	{"Whānau", "Matua", "Father, uncle", [3]string{"Sister", "Baby", "Cousin"}, "The plural is mātua."},
	{"Whānau", "Tamaiti", "Child", [3]string{"Elder", "Parent", "Neighbour"}, "The plural is tamariki."},
	{"Kai", "Kai", "Food", [3]string{"Water", "Table", "Kitchen"}, "Kai can also mean to eat."},
	{"Kai", "Wai", "Water", [3]string{"Milk", "Bread", "Fire"}, "Wai also asks who: ko wai koe?"},
	{"Kai", "Kia pai tō kai", "Enjoy your meal", [3]string{"I am hungry", "Pass the salt", "The food is cold"}, "Say it when food is served."},
	{"Tau", "Tahi", "One", [3]string{"Two", "Three", "Ten"}, "Count tahi, rua, toru, whā, rima."},
	{"Tau", "Rima", "Five", [3]string{"Four", "Six", "Nine"}, "Rima also means hand."},
	{"Tau", "Tekau", "Ten", [3]string{"Seven", "Eight", "Twenty"}, "Tekau mā tahi is eleven."},
	{"Tae", "Whero", "Red", [3]string{"Blue", "Green", "Yellow"}, "Kōkōwai is red ochre."},
	{"Tae", "Kākāriki", "Green", [3]string{"Black", "White", "Purple"}, "Kākāriki is also a parakeet."},
	{"Tae", "Kikorangi", "Blue", [3]string{"Orange", "Grey", "Brown"}, "Kiko means flesh and rangi means sky."},
	{"Taiao", "Maunga", "Mountain", [3]string{"River", "Lake", "Sea"}, "Many pepeha begin with a maunga."},
	{"Taiao", "Awa", "River", [3]string{"Forest", "Island", "Valley"}, "Ko Whanganui te awa."},
	{"Taiao", "Moana", "Sea, ocean", [3]string{"Sky", "Rain", "Cloud"}, "Te Moana-nui-a-Kiwa is the Pacific Ocean."},
	{"Taiao", "Ngahere", "Forest", [3]string{"Beach", "Garden", "Hill"}, "Tāne is the guardian of the ngahere."},
	{"Wā", "Ata mārie", "Good morning", [3]string{"Good night", "Good afternoon", "Happy birthday"}, "Mārie means calm or peaceful."},
	{"Wā", "Pō mārie", "Good night", [3]string{"Good morning", "Welcome back", "Well done"}, "Pō is night."},
	{"Wā", "Āpōpō", "Tomorrow", [3]string{"Yesterday", "Today", "Next week"}, "Inanahi is yesterday."},
	{"Kōrero", "Kei te pēhea koe?", "How are you?", [3]string{"Where are you going?", "What is your name?", "Who are you?"}, "Answer kei te pai if you are well."},
	{"Kōrero", "Kei te pai", "I am good", [3]string{"I am tired", "I am hungry", "I am cold"}, "Add rawa for very: kei te tino pai."},
	{"Kōrero", "Ko wai tō ingoa?", "What is your name?", [3]string{"Where are you from?", "How old are you?", "Where do you live?"}, "Reply ko ... tōku ingoa."},
	{"Kōrero", "Nō hea koe?", "Where are you from?", [3]string{"Where are you going?", "When did you arrive?", "Who is with you?"}, "Reply nō ... ahau."},
	{"Tikanga", "Karakia", "Prayer, incantation", [3]string{"Song", "Speech", "Dance"}, "Karakia are often said before kai."},
	{"Tikanga", "Manaakitanga", "Hospitality, care for others", [3]string{"Leadership", "Knowledge", "Strength"}, "Manaaki means to support and take care of."},
	{"Tikanga", "Mahuru", "September, spring", [3]string{"Winter", "Summer", "Harvest"}, "Mahuru Māori is a month of speaking te reo every day."},
}

func question(l lesson) (string, []string) {
	options := make([]string, 0, 4)
	slot := len(l.word) % 4
	for i, j := 0, 0; i < 4; i++ {
		if i == slot {
			options = append(options, l.meaning)
			continue
		}
		options = append(options, l.others[j])
		j++
	}
	return fmt.Sprintf("What does %q mean?", l.word), options
}

func Activities() []activity.Activity {
	out := make([]activity.Activity, 0, progress.MaxDay)
	for i, l := range lessons {
		day := i + 1
		q, options := question(l)

		advanced := progress.TypeChallenge
		if l.theme == "Tikanga" {
			advanced = progress.TypeCultural
		}
		practice := progress.TypePractice
		if day%7 == 0 {
			practice = progress.TypeReflection
		}

		out = append(out, activity.Activity{
			Day:   day,
			Theme: l.theme,
			Beginner: activity.Variant{
				Title:        l.word,
				Description:  fmt.Sprintf("Learn %q, meaning %s.", l.word, l.meaning),
				Instructions: "Choose the correct meaning.",
				Type:         progress.TypeQuiz,
				Points:       progress.PointsForDay(day, progress.Beginner),
				Question:     q,
				Options:      options,
				Answer:       l.meaning,
			},
			Intermediate: activity.Variant{
				Title:        l.word + " in a sentence",
				Description:  fmt.Sprintf("Use %q in a sentence of your own.", l.word),
				Instructions: "Say your sentence aloud three times, then write it down.",
				Type:         practice,
				Points:       progress.PointsForDay(day, progress.Intermediate),
			},
			Advanced: activity.Variant{
				Title:        l.theme + " challenge",
				Description:  fmt.Sprintf("Hold a short conversation about %s using %q.", l.theme, l.word),
				Instructions: "Speak only te reo Māori for five minutes with a friend or whānau member.",
				Type:         advanced,
				Points:       progress.PointsForDay(day, progress.Advanced),
			},
			Tips: []string{l.tip},
			Resources: []activity.Resource{
				{Title: "Te Aka Māori Dictionary", URL: "https://maoridictionary.co.nz/search?keywords=" + url.QueryEscape(l.word)},
			},
		})
	}
	return out
}
