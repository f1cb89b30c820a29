/*
Copyright 2025 SafeSend Authors.

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

package notification

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/safesendhq/safesend/config"
	"github.com/safesendhq/safesend/internal/request"
	"github.com/sirupsen/logrus"
)

// SlackNotification sends an error report to the configured Slack webhook.
func SlackNotification(err error) {
	data := json.RawMessage(fmt.Sprintf(`{
		"blocks": [
			{
				"type": "header",
				"text": {
					"type": "plain_text",
					"text": "Error From SafeSend",
					"emoji": true
				}
			},
			{
				"type": "section",
				"fields": [
					{
						"type": "mrkdwn",
						"text": "*Error:*\n%v"
					},
					{
						"type": "mrkdwn",
						"text": "*Time:*\n%s"
					}
				]
			}
		]
	}`, err, time.Now().Format(time.RFC1123)))

	conf, confErr := config.Fetch()
	if confErr != nil {
		log.Println(confErr)
		return
	}

	payload, reqErr := request.ToJsonReq(&data)
	if reqErr != nil {
		log.Println(reqErr)
		return
	}

	req, reqErr := http.NewRequest("POST", conf.Notification.Slack.WebhookUrl, payload)
	if reqErr != nil {
		log.Println(reqErr)
		return
	}

	var response map[string]interface{}
	_, reqErr = request.Call(req, &response)
	if reqErr != nil {
		log.Println(reqErr)
	}
}

// NotifyError logs the error and forwards it to Slack when configured. The
// notification runs asynchronously so callers never block on delivery.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)

		conf, err := config.Fetch()
		if err != nil {
			log.Println(err)
			return
		}

		if conf.Notification.Slack.WebhookUrl != "" {
			SlackNotification(systemError)
		}
	}(systemError)
}
