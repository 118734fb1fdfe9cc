package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
	apperrors "github.com/release-kit/releaseflow/pkg/errors"
)

// YAMLLoader implements ports.ConfigLoader by reading the three-table YAML
// configuration from disk, structurally validating it with struct tags,
// then semantically validating it against the domain model.
type YAMLLoader struct {
	logger ports.Logger
	valid  *validator.Validate
}

// NewYAMLLoader constructs a YAMLLoader.
func NewYAMLLoader(logger ports.Logger) *YAMLLoader {
	return &YAMLLoader{logger: logger, valid: validator.New()}
}

func (l *YAMLLoader) Load(ctx context.Context, path string) (*release.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainErr(release.ErrCodeCancellation, "load cancelled", err, nil)
	}

	l.logDebug(ctx, "loading pipeline configuration", map[string]interface{}{"path": path})

	data, err := os.ReadFile(path)
	if err != nil {
		l.logError(ctx, "failed to read configuration", err, map[string]interface{}{"path": path})
		return nil, convertError(apperrors.NewParseError(path, 0, err), path)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		parseErr := apperrors.NewParseError(path, 0, err)
		l.logError(ctx, "failed to parse configuration", parseErr, map[string]interface{}{"path": path})
		return nil, convertError(parseErr, path)
	}

	if err := l.valid.Struct(raw); err != nil {
		valErr := apperrors.NewValidationError("", err.Error(), err)
		l.logError(ctx, "configuration failed structural validation", valErr, map[string]interface{}{"path": path})
		return nil, convertError(valErr, path)
	}

	cfg := mapToDomain(raw)
	if derr := cfg.Validate(); derr != nil {
		l.logError(ctx, "configuration failed semantic validation", derr, map[string]interface{}{"path": path})
		return nil, derr
	}

	l.logInfo(ctx, "pipeline configuration loaded", map[string]interface{}{"path": path, "plugins": len(cfg.Plugins)})
	return cfg, nil
}

func (l *YAMLLoader) Validate(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return domainErr(release.ErrCodeCancellation, "validate cancelled", err, nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		l.logError(ctx, "configuration path stat failed", err, map[string]interface{}{"path": path})
		return convertError(apperrors.NewParseError(path, 0, err), path)
	}
	if info.IsDir() {
		return domainErr(release.ErrCodeConfig, "configuration path is a directory", nil, map[string]interface{}{"path": path})
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		_, err = l.Load(ctx, path)
	default:
		err = domainErr(release.ErrCodeConfig, "unsupported configuration file extension", nil, map[string]interface{}{"path": path})
	}
	return err
}

var _ ports.ConfigLoader = (*YAMLLoader)(nil)

func mapToDomain(raw rawConfig) *release.Configuration {
	plugins := make(map[rplugin.Id]release.PluginConfig, len(raw.Plugins))
	order := make([]rplugin.Id, 0, len(raw.Plugins))
	for _, p := range raw.Plugins {
		id := rplugin.Id(p.ID)
		plugins[id] = release.PluginConfig{
			ID:       id,
			Location: rplugin.Location{Builtin: p.Location.Builtin},
			Config:   cloneMap(p.Config),
		}
		order = append(order, id)
	}

	steps := make(map[release.Step]release.StepBinding, len(raw.Steps))
	for name, binding := range raw.Steps {
		step := release.Step(name)
		folded := strings.ReplaceAll(name, "_", "")
		for _, known := range release.Steps {
			if strings.EqualFold(string(known), folded) {
				step = known
				break
			}
		}
		switch binding.Kind {
		case "singleton":
			steps[step] = release.StepBinding{Kind: release.BindingSingleton, Singleton: rplugin.Id(binding.Singleton)}
		case "shared":
			ids := make([]rplugin.Id, len(binding.Shared))
			for i, id := range binding.Shared {
				ids[i] = rplugin.Id(id)
			}
			steps[step] = release.StepBinding{Kind: release.BindingShared, Shared: ids}
		case "discover":
			steps[step] = release.StepBinding{Kind: release.BindingDiscover}
		}
	}

	return &release.Configuration{RepoPath: raw.Repo, Plugins: plugins, PluginOrder: order, Steps: steps}
}

func cloneMap(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	clone := make(map[string]interface{}, len(src))
	for k, v := range src {
		clone[k] = v
	}
	return clone
}

func convertError(err error, path string) error {
	if err == nil {
		return nil
	}
	var parseErr *apperrors.ParseError
	if errors.As(err, &parseErr) {
		if errors.Is(parseErr.Err, os.ErrNotExist) {
			return domainErr(release.ErrCodeConfig, "configuration not found", parseErr.Err, map[string]interface{}{"path": path})
		}
		return domainErr(release.ErrCodeConfig, "invalid configuration syntax", err, map[string]interface{}{"path": path})
	}
	var valErr *apperrors.ValidationError
	if errors.As(err, &valErr) {
		ctx := map[string]interface{}{"path": path}
		if valErr.Field != "" {
			ctx["field"] = valErr.Field
		}
		return domainErr(release.ErrCodeConfig, valErr.Message, valErr.Err, ctx)
	}
	if os.IsNotExist(err) {
		return domainErr(release.ErrCodeConfig, "configuration not found", err, map[string]interface{}{"path": path})
	}
	return domainErr(release.ErrCodeInternal, "configuration load failed", err, map[string]interface{}{"path": path})
}

func domainErr(code release.ErrorCode, message string, cause error, ctx map[string]interface{}) *release.Error {
	return &release.Error{Code: code, Message: message, Cause: cause, Context: ctx}
}

func (l *YAMLLoader) logDebug(ctx context.Context, msg string, fields map[string]interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(ctx, msg, flattenFields(fields)...)
}

func (l *YAMLLoader) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Info(ctx, msg, flattenFields(fields)...)
}

func (l *YAMLLoader) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if l.logger == nil {
		return
	}
	payload := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["error"] = err
	l.logger.Error(ctx, msg, flattenFields(payload)...)
}

func flattenFields(fields map[string]interface{}) []interface{} {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}
