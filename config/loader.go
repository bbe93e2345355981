/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-reflect"
	"github.com/joho/godotenv"
)

// Loader fills the `env` tagged fields of a struct pointer.
type Loader interface {
	Load(dest any) error
}

// ChainLoader runs loaders in order. The last one to set a field wins.
type ChainLoader struct {
	loaders []Loader
}

func NewChainLoader(loaders ...Loader) *ChainLoader {
	return &ChainLoader{loaders: loaders}
}

func (c *ChainLoader) Load(dest any) error {
	for _, loader := range c.loaders {
		if err := loader.Load(dest); err != nil {
			return fmt.Errorf("unable to load config: %w", err)
		}
	}
	return nil
}

// EnvLoader reads the process environment.
type EnvLoader struct{}

func NewEnvLoader() *EnvLoader {
	return &EnvLoader{}
}

func (e *EnvLoader) Load(dest any) error {
	return assign(dest, os.LookupEnv)
}

// FileLoader reads dotenv files, later files overriding earlier ones.
type FileLoader struct {
	fileNames []string
}

func NewFileLoader(fileNames ...string) *FileLoader {
	return &FileLoader{fileNames: fileNames}
}

func (f *FileLoader) Load(dest any) error {
	for _, file := range f.fileNames {
		values, err := godotenv.Read(file)
		if err != nil {
			return fmt.Errorf("unable to read config file %s: %w", file, err)
		}
		err = assign(dest, func(key string) (string, bool) {
			v, ok := values[key]
			return v, ok
		})
		if err != nil {
			return fmt.Errorf("config file %s: %w", file, err)
		}
	}
	return nil
}

// assign sets every exported field whose `env` tag lookup finds a value.
func assign(dest any, lookup func(string) (string, bool)) error {
	val := reflect.ValueOf(dest)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("destination must be a struct pointer")
	}
	val = val.Elem()
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}
		tag, ok := typ.Field(i).Tag.Lookup("env")
		if !ok {
			continue
		}
		raw, ok := lookup(tag)
		if !ok {
			continue
		}
		if err := setField(field, raw); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	if _, ok := field.Interface().(time.Duration); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
