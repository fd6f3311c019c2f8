/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"os"

	"github.com/gravitational/grove/lib/model"

	"github.com/gravitational/trace"
	"gopkg.in/yaml.v3"
)

// loadCluster reads and parses a cluster spec YAML document from path.
func loadCluster(path string) (model.ClusterSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ClusterSpec{}, trace.ConvertSystemError(err)
	}
	defer f.Close()

	var cluster model.ClusterSpec
	if err := yaml.NewDecoder(f).Decode(&cluster); err != nil {
		return model.ClusterSpec{}, trace.Wrap(err, "parsing cluster spec %q", path)
	}
	return cluster, nil
}
