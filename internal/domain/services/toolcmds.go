package services

import (
	"github.com/ilastik/app-pass/internal/domain/entities"
)

// Constructors for the platform-tool commands a repair plan is made of.
// Argument vectors are fully determined here so every command can be
// previewed or serialized before anything runs.

// RewriteIdentityCommand sets a binary's install name.
func RewriteIdentityCommand(binaryPath, newID string) entities.Command {
	return entities.Command{Args: []string{"install_name_tool", "-id", newID, binaryPath}}
}

// RewriteDependencyCommand rewrites one dependency path of a binary.
func RewriteDependencyCommand(binaryPath, oldDep, newDep string) entities.Command {
	return entities.Command{Args: []string{"install_name_tool", "-change", oldDep, newDep, binaryPath}}
}

// RewriteRpathCommand rewrites one run-path entry of a binary.
func RewriteRpathCommand(binaryPath, oldEntry, newEntry string) entities.Command {
	return entities.Command{Args: []string{"install_name_tool", "-rpath", oldEntry, newEntry, binaryPath}}
}

// RemoveRpathCommand deletes one run-path entry from a binary.
func RemoveRpathCommand(binaryPath, entry string) entities.Command {
	return entities.Command{Args: []string{"install_name_tool", "-delete_rpath", entry, binaryPath}}
}

// OverwriteBuildCommand replaces a binary's build metadata.
func OverwriteBuildCommand(binaryPath string, build entities.BuildInfo) entities.Command {
	return entities.Command{Args: []string{
		"vtool",
		"-set-build-version", build.Platform, build.MinOS, build.SDK,
		"-replace",
		"-output", binaryPath,
		binaryPath,
	}}
}

// SignCommand codesigns a path with the hardened runtime enabled.
func SignCommand(path, entitlementsFile, identity string) entities.Command {
	args := []string{"codesign", "--force", "--timestamp", "--options", "runtime"}
	if entitlementsFile != "" {
		args = append(args, "--entitlements", entitlementsFile)
	}
	args = append(args, "--sign", identity, path)
	return entities.Command{Args: args}
}
