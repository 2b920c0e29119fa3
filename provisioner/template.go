// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package provisioner

import (
	"io/ioutil"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
)

// readTemplate loads a JSON object from disk. Templates are never cached.
func readTemplate(path string) (*fastjson.Value, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read template %s", path)
	}
	var p fastjson.Parser
	v, err := p.ParseBytes(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "Template %s is not valid json", path)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, errors.Errorf("Template %s must hold a json object, got %s", path, v.Type())
	}
	return v, nil
}

// RenderIndexTemplate sets settings.index.number_of_shards on the template and
// forces number_of_replicas to 0 for single data node clusters. Every other
// field, and the field order, is kept as read.
func RenderIndexTemplate(template *fastjson.Value, shardCount int) ([]byte, error) {
	var arena fastjson.Arena

	settings, err := childObject(&arena, template, "settings")
	if err != nil {
		return nil, err
	}
	index, err := childObject(&arena, settings, "index")
	if err != nil {
		return nil, errors.Wrap(err, "settings")
	}

	log.Info("Setting Index Shard Count to: ", shardCount)
	index.Set("number_of_shards", arena.NewNumberInt(shardCount))
	if shardCount == singleNodeShards {
		log.Info("Single node cluster detected - disabling replicas")
		index.Set("number_of_replicas", arena.NewNumberInt(0))
	}
	return template.MarshalTo(nil), nil
}

// childObject returns parent[key], adding an empty object when it is absent.
func childObject(arena *fastjson.Arena, parent *fastjson.Value, key string) (*fastjson.Value, error) {
	child := parent.Get(key)
	if child == nil {
		child = arena.NewObject()
		parent.Set(key, child)
		return child, nil
	}
	if child.Type() != fastjson.TypeObject {
		return nil, errors.Errorf("%s must be a json object, got %s", key, child.Type())
	}
	return child, nil
}
