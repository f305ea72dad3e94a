package gateway

import "strings"

// Topic layout:
//
//	publish:  <base>/<equipment>[/<channel>]/<shortcut-or-description>
//	status:   <base>/<equipment>/status          (envelope when undecodable)
//	inbound:  <base>/<equipment>/req              (subscribe)
//	learn:    <base>/learn                        (publish on UTE accept)

func publishTopic(base string, eq *Equipment, shortcut string) string {
	parts := []string{base, eq.Name}
	if eq.Channel != "" {
		parts = append(parts, eq.Channel)
	}
	parts = append(parts, shortcut)
	return strings.Join(parts, "/")
}

func statusTopic(base string, eq *Equipment) string {
	return base + "/" + eq.Name + "/status"
}

func requestTopic(base string, eq *Equipment) string {
	return base + "/" + eq.Name + "/req"
}

func requestTopicFilter(base string) string {
	return base + "/+/req"
}

func learnTopic(base string) string {
	return base + "/learn"
}

// equipmentNameFromRequestTopic extracts the equipment name segment from a
// topic matching requestTopicFilter's "<base>/+/req" shape, or "" if it
// doesn't match.
func equipmentNameFromRequestTopic(base, topic string) string {
	prefix := base + "/"
	suffix := "/req"
	if !strings.HasPrefix(topic, prefix) || !strings.HasSuffix(topic, suffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(topic, prefix), suffix)
}
