package transform

import (
	"strings"

	"github.com/kombineproject/kombine/pkg/kustomize"
	"github.com/kombineproject/kombine/pkg/resource"
)

// OverrideImages rewrites container images across all pod templates.
// Overrides match on the image name, i.e., the reference without its
// tag or digest.
func OverrideImages(manifests []*resource.Manifest, overrides []kustomize.Image) {
	if len(overrides) == 0 {
		return
	}
	for _, m := range manifests {
		walk(m.Object(), func(node map[string]interface{}) {
			for _, field := range []string{"containers", "initContainers"} {
				containers, _ := node[field].([]interface{})
				for _, rawContainer := range containers {
					container, ok := rawContainer.(map[string]interface{})
					if !ok {
						continue
					}
					image, ok := container["image"].(string)
					if !ok {
						continue
					}
					if newImage, changed := overrideImage(image, overrides); changed {
						container["image"] = newImage
					}
				}
			}
		})
	}
}

func overrideImage(image string, overrides []kustomize.Image) (string, bool) {
	name, tag, digest := splitImage(image)
	for _, o := range overrides {
		if o.Name != name {
			continue
		}
		newName := name
		if o.NewName != "" {
			newName = o.NewName
		}
		switch {
		case o.Digest != "":
			return newName + "@" + o.Digest, true
		case o.NewTag != "":
			return newName + ":" + o.NewTag, true
		case digest != "":
			return newName + "@" + digest, true
		case tag != "":
			return newName + ":" + tag, true
		default:
			return newName, true
		}
	}
	return image, false
}

// splitImage separates a reference into name, tag and digest. A colon
// before the last path component (a registry port) is not a tag
// separator.
func splitImage(image string) (name, tag, digest string) {
	name = image
	if i := strings.Index(name, "@"); i >= 0 {
		name, digest = name[:i], name[i+1:]
	}
	slash := strings.LastIndex(name, "/")
	if i := strings.LastIndex(name, ":"); i > slash {
		name, tag = name[:i], name[i+1:]
	}
	return name, tag, digest
}
