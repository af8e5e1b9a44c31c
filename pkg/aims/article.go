package aims

import (
	"fmt"
	"strings"

	"github.com/AvivElectis/electisSpace-sub010/pkg/models"
)

// Article is the AIMS wire format for one label payload
type Article struct {
	ArticleID   string            `json:"articleId"`
	ArticleName string            `json:"articleName"`
	NFCUrl      string            `json:"nfcUrl,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
}

// Article ID prefixes per entity kind. AIMS itself has no notion of
// spaces or people; the prefix is how we find our way back.
const (
	spacePrefix  = "SP-"
	personPrefix = "PE-"
	roomPrefix   = "CR-"
)

// ArticleIDFor returns the AIMS article ID for an entity
func ArticleIDFor(entityType models.EntityType, entityID string) string {
	switch entityType {
	case models.EntitySpace:
		return spacePrefix + entityID
	case models.EntityPerson:
		return personPrefix + entityID
	case models.EntityRoom:
		return roomPrefix + entityID
	default:
		return entityID
	}
}

// ParseArticleID resolves an AIMS article ID back to an entity reference.
// ok is false for articles that were not produced by this system.
func ParseArticleID(articleID string) (entityType models.EntityType, entityID string, ok bool) {
	switch {
	case strings.HasPrefix(articleID, spacePrefix):
		return models.EntitySpace, strings.TrimPrefix(articleID, spacePrefix), true
	case strings.HasPrefix(articleID, personPrefix):
		return models.EntityPerson, strings.TrimPrefix(articleID, personPrefix), true
	case strings.HasPrefix(articleID, roomPrefix):
		return models.EntityRoom, strings.TrimPrefix(articleID, roomPrefix), true
	default:
		return "", "", false
	}
}

// BuildSpaceArticle maps a space to its label payload
func BuildSpaceArticle(sp *models.Space) Article {
	return Article{
		ArticleID:   ArticleIDFor(models.EntitySpace, sp.ID),
		ArticleName: sp.Name,
		NFCUrl:      sp.NFCUrl,
		Data: map[string]string{
			"TYPE":   string(sp.Type),
			"STATUS": string(sp.Status),
			"FLOOR":  sp.Floor,
			"ZONE":   sp.Zone,
		},
	}
}

// BuildPersonArticle maps a desk assignment to its label payload
func BuildPersonArticle(p *models.Person) Article {
	return Article{
		ArticleID:   ArticleIDFor(models.EntityPerson, p.ID),
		ArticleName: p.Name,
		Data: map[string]string{
			"TITLE": p.Title,
			"EMAIL": p.Email,
			"PHONE": p.Phone,
			"DESK":  p.SpaceID,
		},
	}
}

// BuildRoomArticle maps a conference room to its label payload
func BuildRoomArticle(r *models.ConferenceRoom) Article {
	return Article{
		ArticleID:   ArticleIDFor(models.EntityRoom, r.ID),
		ArticleName: r.Name,
		Data: map[string]string{
			"CAPACITY": fmt.Sprintf("%d", r.Capacity),
			"STATUS":   string(r.Status),
			"CURRENT":  r.CurrentMeeting,
			"NEXT":     r.NextMeeting,
		},
	}
}

// ArticlesEqual reports whether two articles carry the same label payload.
// Empty data values are treated the same as missing keys, because AIMS
// drops empty fields on its side.
func ArticlesEqual(a, b Article) bool {
	if a.ArticleID != b.ArticleID || a.ArticleName != b.ArticleName || a.NFCUrl != b.NFCUrl {
		return false
	}
	return dataEqual(a.Data, b.Data) && dataEqual(b.Data, a.Data)
}

func dataEqual(a, b map[string]string) bool {
	for k, v := range a {
		if v == "" {
			continue
		}
		if b[k] != v {
			return false
		}
	}
	return true
}
