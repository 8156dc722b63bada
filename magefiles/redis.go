//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Local redis container used as the owner cache (redis_addr: localhost:6379).
const (
	redisContainer = "giftcharts-redis"
	redisImage     = "redis:7-alpine"
	redisPort      = "6379"
)

// Redis groups targets for the local owner cache.
type Redis mg.Namespace

// containerRuntime returns "podman" or "docker" if a working runtime
// is available, or "" if neither is usable.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if err := exec.Command(name, "info").Run(); err == nil {
			return name
		}
	}
	return ""
}

// Start runs a detached redis container on localhost:6379.
func (Redis) Start() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (podman or docker)")
	}
	return sh.RunV(rt, "run", "-d", "--rm",
		"--name", redisContainer,
		"-p", redisPort+":"+redisPort,
		redisImage)
}

// Stop stops the redis container started by Start.
func (Redis) Stop() error {
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (podman or docker)")
	}
	return sh.RunV(rt, "stop", redisContainer)
}
