package aims

import (
	"testing"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
)

func TestArticleIDRoundTrip(t *testing.T) {
	tests := []struct {
		entityType models.EntityType
		entityID   string
		articleID  string
	}{
		{models.EntitySpace, "abc-123", "SP-abc-123"},
		{models.EntityPerson, "p-9", "PE-p-9"},
		{models.EntityRoom, "r-1", "CR-r-1"},
	}

	for _, tt := range tests {
		got := ArticleIDFor(tt.entityType, tt.entityID)
		if got != tt.articleID {
			t.Errorf("ArticleIDFor(%s, %s) = %s, want %s", tt.entityType, tt.entityID, got, tt.articleID)
		}

		entityType, entityID, ok := ParseArticleID(got)
		if !ok {
			t.Errorf("ParseArticleID(%s) not recognized", got)
		}
		if entityType != tt.entityType || entityID != tt.entityID {
			t.Errorf("ParseArticleID(%s) = (%s, %s), want (%s, %s)", got, entityType, entityID, tt.entityType, tt.entityID)
		}
	}
}

func TestParseArticleIDForeign(t *testing.T) {
	for _, id := range []string{"EAN-12345", "12345", "", "sp-lowercase"} {
		if _, _, ok := ParseArticleID(id); ok {
			t.Errorf("Expected %q to be foreign", id)
		}
	}
}

func TestBuildSpaceArticle(t *testing.T) {
	sp := &models.Space{
		ID:     "sp-1",
		Name:   "Desk 42",
		Type:   models.SpaceTypeDesk,
		Status: models.SpaceStatusOccupied,
		Floor:  "2",
		Zone:   "North",
		NFCUrl: "https://example.com/desk/42",
	}

	a := BuildSpaceArticle(sp)
	if a.ArticleID != "SP-sp-1" {
		t.Errorf("Unexpected article ID: %s", a.ArticleID)
	}
	if a.ArticleName != "Desk 42" {
		t.Errorf("Unexpected article name: %s", a.ArticleName)
	}
	if a.NFCUrl != sp.NFCUrl {
		t.Errorf("Unexpected NFC URL: %s", a.NFCUrl)
	}
	if a.Data["STATUS"] != "occupied" || a.Data["FLOOR"] != "2" {
		t.Errorf("Unexpected data payload: %v", a.Data)
	}
}

func TestBuildPersonArticle(t *testing.T) {
	p := &models.Person{
		ID:      "p-1",
		Name:    "Dana",
		Title:   "Engineer",
		Email:   "dana@example.com",
		SpaceID: "sp-1",
	}

	a := BuildPersonArticle(p)
	if a.ArticleID != "PE-p-1" {
		t.Errorf("Unexpected article ID: %s", a.ArticleID)
	}
	if a.Data["DESK"] != "sp-1" || a.Data["TITLE"] != "Engineer" {
		t.Errorf("Unexpected data payload: %v", a.Data)
	}
}

func TestBuildRoomArticle(t *testing.T) {
	r := &models.ConferenceRoom{
		ID:             "r-1",
		Name:           "War Room",
		Capacity:       8,
		Status:         models.RoomStatusOccupied,
		CurrentMeeting: "Standup",
	}

	a := BuildRoomArticle(r)
	if a.ArticleID != "CR-r-1" {
		t.Errorf("Unexpected article ID: %s", a.ArticleID)
	}
	if a.Data["CAPACITY"] != "8" || a.Data["CURRENT"] != "Standup" {
		t.Errorf("Unexpected data payload: %v", a.Data)
	}
}

func TestArticlesEqual(t *testing.T) {
	base := Article{
		ArticleID:   "SP-1",
		ArticleName: "Desk 1",
		Data:        map[string]string{"STATUS": "free", "FLOOR": "2"},
	}

	same := Article{
		ArticleID:   "SP-1",
		ArticleName: "Desk 1",
		Data:        map[string]string{"STATUS": "free", "FLOOR": "2"},
	}
	if !ArticlesEqual(base, same) {
		t.Error("Expected identical articles to be equal")
	}

	renamed := same
	renamed.ArticleName = "Desk One"
	if ArticlesEqual(base, renamed) {
		t.Error("Expected renamed article to differ")
	}

	changed := Article{
		ArticleID:   "SP-1",
		ArticleName: "Desk 1",
		Data:        map[string]string{"STATUS": "occupied", "FLOOR": "2"},
	}
	if ArticlesEqual(base, changed) {
		t.Error("Expected changed data to differ")
	}

	// Empty values count as missing keys: AIMS drops them on its side
	sparse := Article{
		ArticleID:   "SP-1",
		ArticleName: "Desk 1",
		Data:        map[string]string{"STATUS": "free", "FLOOR": "2", "ZONE": ""},
	}
	remote := Article{
		ArticleID:   "SP-1",
		ArticleName: "Desk 1",
		Data:        map[string]string{"STATUS": "free", "FLOOR": "2"},
	}
	if !ArticlesEqual(sparse, remote) {
		t.Error("Expected empty data value to match missing key")
	}
}
