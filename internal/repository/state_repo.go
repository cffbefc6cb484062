package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"chunkslate/internal/model/translation"
)

// StateRepo 设置与草稿仓库
//
// 读取到无法解析的内容时按不存在处理，不会阻止启动。
type StateRepo struct {
	store       Store
	settingsKey string
	draftKey    string
}

// NewStateRepo 创建设置与草稿仓库
func NewStateRepo(store Store, settingsKey, draftKey string) *StateRepo {
	return &StateRepo{store: store, settingsKey: settingsKey, draftKey: draftKey}
}

// LoadSettings 读取设置，不存在时返回 nil
func (r *StateRepo) LoadSettings(ctx context.Context) (*translation.Settings, error) {
	var settings translation.Settings
	ok, err := r.load(ctx, r.settingsKey, &settings)
	if !ok {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings 保存设置
func (r *StateRepo) SaveSettings(ctx context.Context, settings *translation.Settings) error {
	return r.save(ctx, r.settingsKey, settings)
}

// LoadDraft 读取草稿，不存在时返回 nil
func (r *StateRepo) LoadDraft(ctx context.Context) (*translation.Draft, error) {
	var draft translation.Draft
	ok, err := r.load(ctx, r.draftKey, &draft)
	if !ok {
		return nil, err
	}
	return &draft, nil
}

// SaveDraft 保存草稿
func (r *StateRepo) SaveDraft(ctx context.Context, draft *translation.Draft) error {
	return r.save(ctx, r.draftKey, draft)
}

// DeleteDraft 删除草稿
func (r *StateRepo) DeleteDraft(ctx context.Context) error {
	return r.store.Delete(ctx, r.draftKey)
}

func (r *StateRepo) load(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("ignore malformed persisted state")
		return false, nil
	}
	return true, nil
}

func (r *StateRepo) save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, key, data)
}
