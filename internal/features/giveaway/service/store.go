package service

import (
	"context"
	"encoding/json"

	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/database"
	"discord-giveaways/internal/features/giveaway/models"
)

// store adapts the generic key-path database to giveaway records. Each guild
// owns one array under "<guildID>.giveaways"; records keep their array index
// for the whole of their life, so writes go back to the slot they came from.
type store struct {
	db *database.Manager
}

func guildKey(guildID string) string {
	return guildID + ".giveaways"
}

// encodeRecord converts a record into the JSON-shaped tree the database
// stores.
func encodeRecord(g *models.Giveaway) (interface{}, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to encode giveaway")
	}
	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to encode giveaway")
	}
	return tree, nil
}

func decodeRecord(value interface{}) (*models.Giveaway, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to decode giveaway")
	}
	var g models.Giveaway
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to decode giveaway")
	}
	return &g, nil
}

// guildGiveaways reads every record of one guild, preserving array order.
func (s store) guildGiveaways(guildID string) ([]*models.Giveaway, error) {
	value, ok := s.db.Get(guildKey(guildID))
	if !ok || value == nil {
		return []*models.Giveaway{}, nil
	}
	array, ok := value.([]interface{})
	if !ok {
		return nil, apperrors.NewInvalidTargetType(guildKey(guildID), "an array")
	}

	records := make([]*models.Giveaway, 0, len(array))
	for _, element := range array {
		record, err := decodeRecord(element)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// allGuildIDs lists every guild that has a giveaways array.
func (s store) allGuildIDs() ([]string, error) {
	return s.db.Keys(""), nil
}

// allGiveaways flattens every guild's list.
func (s store) allGiveaways() ([]*models.Giveaway, error) {
	var records []*models.Giveaway
	for _, guildID := range s.db.Keys("") {
		guildRecords, err := s.guildGiveaways(guildID)
		if err != nil {
			return nil, err
		}
		records = append(records, guildRecords...)
	}
	return records, nil
}

// find locates a record by id within its guild's array and returns it with
// its index.
func (s store) find(guildID string, id int) (*models.Giveaway, int, error) {
	records, err := s.guildGiveaways(guildID)
	if err != nil {
		return nil, -1, err
	}
	for index, record := range records {
		if record.ID == id {
			return record, index, nil
		}
	}
	return nil, -1, apperrors.Newf(apperrors.ErrCodeUnknownGiveaway, "no giveaway %d in guild %s", id, guildID).
		WithDetail("guild_id", guildID).
		WithDetail("id", id)
}

// nextID assigns max(existing ids)+1 within the guild. IDs are never global.
func (s store) nextID(guildID string) (int, error) {
	records, err := s.guildGiveaways(guildID)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, record := range records {
		if record.ID > max {
			max = record.ID
		}
	}
	return max + 1, nil
}

// push appends a new record to its guild's array and returns its slot index.
func (s store) push(ctx context.Context, g *models.Giveaway) (int, error) {
	tree, err := encodeRecord(g)
	if err != nil {
		return -1, err
	}
	array, err := s.db.Push(ctx, guildKey(g.GuildID), tree)
	if err != nil {
		return -1, err
	}
	return len(array) - 1, nil
}

// saveAt writes the record back into the array slot it occupied.
func (s store) saveAt(ctx context.Context, g *models.Giveaway, index int) error {
	key := guildKey(g.GuildID)
	value, ok := s.db.Get(key)
	if !ok {
		return apperrors.Newf(apperrors.ErrCodeUnknownGiveaway, "guild %s has no giveaways", g.GuildID)
	}
	array, ok := value.([]interface{})
	if !ok {
		return apperrors.NewInvalidTargetType(key, "an array")
	}
	if index < 0 || index >= len(array) {
		return apperrors.Newf(apperrors.ErrCodeUnknownGiveaway, "giveaway %d lost its slot in guild %s", g.ID, g.GuildID)
	}

	tree, err := encodeRecord(g)
	if err != nil {
		return err
	}
	array[index] = tree
	_, err = s.db.Set(ctx, key, array)
	return err
}

// deleteAt removes the record at index from its guild's array.
func (s store) deleteAt(ctx context.Context, guildID string, index int) error {
	key := guildKey(guildID)
	value, ok := s.db.Get(key)
	if !ok {
		return nil
	}
	array, ok := value.([]interface{})
	if !ok {
		return apperrors.NewInvalidTargetType(key, "an array")
	}
	if index < 0 || index >= len(array) {
		return nil
	}

	array = append(array[:index], array[index+1:]...)
	_, err := s.db.Set(ctx, key, array)
	return err
}
