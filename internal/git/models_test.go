package git

import (
	"testing"
	"time"
)

func TestAuthorInfo_ContributorKey(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{name: "Lowercase email", email: "user@example.com", expected: "user@example.com"},
		{name: "Uppercase email", email: "USER@EXAMPLE.COM", expected: "user@example.com"},
		{name: "Mixed case email", email: "User@Example.Com", expected: "user@example.com"},
		{name: "Empty email", email: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AuthorInfo{Name: "Test", Email: tt.email}
			result := a.ContributorKey()
			if result != tt.expected {
				t.Errorf("ContributorKey() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestAuthorInfo_String(t *testing.T) {
	tests := []struct {
		name     string
		author   AuthorInfo
		expected string
	}{
		{name: "Name and email", author: AuthorInfo{Name: "Ann", Email: "ann@example.com"}, expected: "Ann <ann@example.com>"},
		{name: "Name only", author: AuthorInfo{Name: "Ann"}, expected: "Ann"},
		{name: "Email only", author: AuthorInfo{Email: "ann@example.com"}, expected: "ann@example.com"},
		{name: "Empty", author: AuthorInfo{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.author.String(); got != tt.expected {
				t.Errorf("String() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestCommitNode_Shape(t *testing.T) {
	root := CommitNode{ID: "a1"}
	linear := CommitNode{ID: "b2", ParentIDs: []string{"a1"}}
	merge := CommitNode{ID: "c3", ParentIDs: []string{"a1", "b2"}}

	if !root.IsRoot() || root.IsMerge() {
		t.Errorf("root: IsRoot=%v IsMerge=%v", root.IsRoot(), root.IsMerge())
	}
	if linear.IsRoot() || linear.IsMerge() {
		t.Errorf("linear: IsRoot=%v IsMerge=%v", linear.IsRoot(), linear.IsMerge())
	}
	if merge.IsRoot() || !merge.IsMerge() {
		t.Errorf("merge: IsRoot=%v IsMerge=%v", merge.IsRoot(), merge.IsMerge())
	}
}

func TestCommitNode_ShortIDAndSubject(t *testing.T) {
	c := CommitNode{
		ID:      "0123456789abcdef0123456789abcdef01234567",
		When:    time.Now(),
		Message: "Fix parser\n\nLonger description here.",
	}
	if got := c.ShortID(); got != "01234567" {
		t.Errorf("ShortID() = %q, expected %q", got, "01234567")
	}
	if got := c.Subject(); got != "Fix parser" {
		t.Errorf("Subject() = %q, expected %q", got, "Fix parser")
	}

	short := CommitNode{ID: "abc"}
	if got := short.ShortID(); got != "abc" {
		t.Errorf("ShortID() = %q, expected %q", got, "abc")
	}
}
