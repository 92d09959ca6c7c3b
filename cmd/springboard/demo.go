/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import "springboard/internal/domain"

var demoApps = []struct{ name, bundle string }{
	{"Messages", "com.apple.MobileSMS"},
	{"Calendar", "com.apple.mobilecal"},
	{"Photos", "com.apple.mobileslideshow"},
	{"Camera", "com.apple.camera"},
	{"Weather", "com.apple.weather"},
	{"Clock", "com.apple.mobiletimer"},
	{"Maps", "com.apple.Maps"},
	{"Videos", "com.apple.videos"},
	{"Notes", "com.apple.mobilenotes"},
	{"Reminders", "com.apple.reminders"},
	{"Stocks", "com.apple.stocks"},
	{"Game Center", "com.apple.gamecenter"},
	{"iTunes Store", "com.apple.MobileStore"},
	{"App Store", "com.apple.AppStore"},
	{"Books", "com.apple.iBooks"},
	{"Health", "com.apple.Health"},
	{"Wallet", "com.apple.Passbook"},
	{"Settings", "com.apple.Preferences"},
	{"Podcasts", "com.apple.podcasts"},
	{"Find My", "com.apple.findmy"},
}

var demoDock = []struct{ name, bundle string }{
	{"Phone", "com.apple.mobilephone"},
	{"Mail", "com.apple.mobilemail"},
	{"Safari", "com.apple.mobilesafari"},
	{"Music", "com.apple.Music"},
}

var demoUtilities = []struct{ name, bundle string }{
	{"Calculator", "com.apple.calculator"},
	{"Compass", "com.apple.compass"},
	{"Voice Memos", "com.apple.VoiceMemos"},
	{"Contacts", "com.apple.MobileAddressBook"},
}

// demoHome builds a small stock layout: two pages of apps, a Utilities
// folder and a full dock.
func demoHome(caps domain.Capacities) *domain.Home {
	h := domain.NewHome(caps)
	items := make([]domain.Item, 0, len(demoApps))
	for _, d := range demoApps {
		a := domain.NewApp(d.name, d.bundle)
		a.Origin = domain.OriginDevice
		items = append(items, a)
	}
	dock := make([]*domain.App, 0, len(demoDock))
	for _, d := range demoDock {
		a := domain.NewApp(d.name, d.bundle)
		a.Origin = domain.OriginDevice
		dock = append(dock, a)
	}
	dock[1].SetBadge(3)
	h.SeedFlat(items, dock)

	f := domain.NewFolder("Utilities", caps.AppsPerPageOnFolder)
	h.AddFolder(f)
	for _, d := range demoUtilities {
		a := domain.NewApp(d.name, d.bundle)
		a.Origin = domain.OriginDevice
		h.AddAppToFolder(a, f)
	}
	return h
}
