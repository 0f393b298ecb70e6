package syncengine

import (
	"testing"

	"studysync/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cs101", Normalize("CS-101"))
	assert.Equal(t, "cs101", Normalize("cs101"))
	assert.Equal(t, "cs101", Normalize("C.S. 101!"))
	assert.Equal(t, Normalize("CS-101"), Normalize(Normalize("CS-101")))
	assert.Equal(t, "", Normalize("---  !!"))
}

func course(id uint, code, name string) models.Course {
	return models.Course{Model: gorm.Model{ID: id}, Code: code, Name: name}
}

func TestLinkCourseByCode(t *testing.T) {
	candidates := []models.Course{
		course(1, "CS101", "Intro to Computer Science"),
		course(2, "MATH55", "Discrete Mathematics"),
	}

	// external code contains the candidate code
	assert.Equal(t, uint(1), LinkCourse("CS 101 Fall 2026", "", candidates))
	// candidate code contains the external code
	assert.Equal(t, uint(2), LinkCourse("MATH-55", "", candidates))
	// punctuation and case are irrelevant
	assert.Equal(t, uint(1), LinkCourse("cs-101", "", candidates))
}

func TestLinkCourseByName(t *testing.T) {
	candidates := []models.Course{
		course(1, "", "Intro to Computer Science"),
	}

	assert.Equal(t, uint(1), LinkCourse("", "INTRO TO COMPUTER SCIENCE", candidates))
	// name matching is exact equality, not substring
	assert.Equal(t, uint(0), LinkCourse("", "Intro to Computer", candidates))
}

func TestLinkCourseFirstMatchWins(t *testing.T) {
	candidates := []models.Course{
		course(1, "CS101", "Computer Science 101"),
		course(2, "CS101", "Duplicate of CS101"),
	}

	// deterministic: same inputs, same ordered candidates, same pick
	for i := 0; i < 5; i++ {
		assert.Equal(t, uint(1), LinkCourse("CS101", "", candidates))
	}
}

func TestLinkCourseNoMatch(t *testing.T) {
	candidates := []models.Course{
		course(1, "CS101", "Intro to Computer Science"),
	}

	assert.Equal(t, uint(0), LinkCourse("BIO300", "Genetics", candidates))
	assert.Equal(t, uint(0), LinkCourse("", "", candidates))
	assert.Equal(t, uint(0), LinkCourse("BIO300", "Genetics", nil))
}

func TestLinkCourseEmptyCodesNeverMatch(t *testing.T) {
	// a candidate with no code must not match every external code
	candidates := []models.Course{
		course(1, "", "Some Course"),
		course(2, "CS101", "Intro"),
	}
	assert.Equal(t, uint(2), LinkCourse("CS101", "", candidates))
}
