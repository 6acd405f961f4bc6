package question

import (
	"github.com/talentgate/assess-backend/internal/model"
)

// FallbackSet returns the canonical static question set used when the
// external question bank is unavailable or empty.
func FallbackSet() []model.RawQuestion {
	return []model.RawQuestion{
		{
			Question:      "Which HTTP status code indicates that a resource was not found?",
			Options:       []string{"200", "301", "404", "500"},
			CorrectAnswer: "C",
			Category:      "Web Fundamentals",
			Difficulty:    "Easy",
		},
		{
			Question:      "What does SQL stand for?",
			Options:       []string{"Structured Query Language", "Sequential Query Logic", "Standard Question Language", "Simple Query Layer"},
			CorrectAnswer: "A",
			Category:      "Databases",
			Difficulty:    "Easy",
		},
		{
			Question:      "Which data structure operates on a first-in, first-out basis?",
			Options:       []string{"Stack", "Queue", "Tree", "Graph"},
			CorrectAnswer: "B",
			Category:      "Data Structures",
			Difficulty:    "Easy",
		},
		{
			Question:      "What is the time complexity of binary search on a sorted array?",
			Options:       []string{"O(n)", "O(n log n)", "O(log n)", "O(1)"},
			CorrectAnswer: "C",
			Category:      "Algorithms",
			Difficulty:    "Medium",
		},
		{
			Question:      "Which of the following is NOT a relational database?",
			Options:       []string{"PostgreSQL", "MySQL", "MongoDB", "MariaDB"},
			CorrectAnswer: "C",
			Category:      "Databases",
			Difficulty:    "Easy",
		},
		{
			Question:      "In Git, which command creates a copy of a remote repository on your machine?",
			Options:       []string{"git branch", "git clone", "git commit", "git merge"},
			CorrectAnswer: "B",
			Category:      "Tooling",
			Difficulty:    "Easy",
		},
		{
			Question:      "Which protocol is used to securely transfer web pages?",
			Options:       []string{"FTP", "HTTP", "HTTPS", "SMTP"},
			CorrectAnswer: "C",
			Category:      "Networking",
			Difficulty:    "Easy",
		},
		{
			Question:      "What does the acronym API stand for?",
			Options:       []string{"Application Programming Interface", "Advanced Protocol Integration", "Applied Program Instruction", "Automated Process Interchange"},
			CorrectAnswer: "A",
			Category:      "Web Fundamentals",
			Difficulty:    "Easy",
		},
		{
			Question:      "Which sorting algorithm has the best average-case time complexity?",
			Options:       []string{"Bubble sort", "Insertion sort", "Selection sort", "Merge sort"},
			CorrectAnswer: "D",
			Category:      "Algorithms",
			Difficulty:    "Medium",
		},
		{
			Question:      "In the OSI model, which layer is responsible for routing?",
			Options:       []string{"Transport", "Network", "Data link", "Session"},
			CorrectAnswer: "B",
			Category:      "Networking",
			Difficulty:    "Medium",
		},
		{
			Question:      "Which of these is a NoSQL key-value store?",
			Options:       []string{"Redis", "PostgreSQL", "SQLite", "Oracle"},
			CorrectAnswer: "A",
			Category:      "Databases",
			Difficulty:    "Easy",
		},
		{
			Question:      "What does ACID stand for in database transactions?",
			Options:       []string{"Atomicity, Consistency, Isolation, Durability", "Access, Control, Integrity, Data", "Atomicity, Concurrency, Integrity, Durability", "Availability, Consistency, Isolation, Distribution"},
			CorrectAnswer: "A",
			Category:      "Databases",
			Difficulty:    "Medium",
		},
		{
			Question:      "Which HTTP method is idempotent by specification?",
			Options:       []string{"POST", "PUT", "PATCH", "CONNECT"},
			CorrectAnswer: "B",
			Category:      "Web Fundamentals",
			Difficulty:    "Medium",
		},
		{
			Question:      "A deadlock requires all of the following EXCEPT:",
			Options:       []string{"Mutual exclusion", "Hold and wait", "Preemption", "Circular wait"},
			CorrectAnswer: "C",
			Category:      "Operating Systems",
			Difficulty:    "Hard",
		},
		{
			Question:      "Which complexity class contains problems verifiable in polynomial time?",
			Options:       []string{"P", "NP", "EXPTIME", "PSPACE"},
			CorrectAnswer: "B",
			Category:      "Theory",
			Difficulty:    "Hard",
		},
	}
}
