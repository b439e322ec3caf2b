package script

// scriptSource is executed with a Payload. Every value lands inside a
// single quoted literal and goes through q; the header comment uses
// comment instead.
const scriptSource = `/**
 * Quickfill: {{comment .Title}}
 * Run in the browser console on the "Add New Post" page.
 */
const EPISODE_DATA = {
    title: '{{q .Title}}',
    seriesName: '{{q .SeriesName}}',
    episodeNumber: '{{q .Number}}',
    season: '{{q .Season}}',
    year: '{{q .Year}}',
    subbed: '{{q .Subbed}}',
    titleSuffix: '{{q .TitleSuffix}}',
    embeds: [
{{- range .Embeds}}
        { hostname: '{{q .Hostname}}', embed: '{{q .Markup}}' },
{{- end}}
    ],
    downloads: {
        episodeTitle: '{{q .DownloadTitle}}',
        resolutions: [
{{- range .Resolutions}}
            {
                pixel: '{{q .Pixel}}',
                links: [
{{- range .Links}}
                    { hosting: '{{q .Provider}}', url: '{{q .URL}}' },
{{- end}}
                ]
            },
{{- end}}
        ]
    }
};

(async function (data) {
    'use strict';
    const DELAY = 150;
    const LIVE = ':scope > .rwmb-clone:not(.rwmb-clone-template)';
    const sleep = (ms) => new Promise((resolve) => setTimeout(resolve, ms));
    const fire = (el) => {
        el.dispatchEvent(new Event('input', { bubbles: true }));
        el.dispatchEvent(new Event('change', { bubbles: true }));
    };
    const setValue = (el, value) => {
        if (!el) return false;
        el.value = value;
        fire(el);
        return true;
    };

    async function rows(container, count) {
        let live = container.querySelectorAll(LIVE);
        while (live.length < count) {
            const add = container.querySelector(':scope > .add-clone');
            if (!add) break;
            add.click();
            await sleep(DELAY);
            live = container.querySelectorAll(LIVE);
        }
        return live;
    }

    function pickSeries(name) {
        const select = document.getElementById('ero_seri');
        if (!select) return;
        const wanted = name.trim().toLowerCase();
        const option = Array.from(select.options).find((o) => o.text.trim().toLowerCase() === wanted);
        if (!option) {
            console.warn('series not found:', name);
            return;
        }
        select.value = option.value;
        if (window.jQuery) window.jQuery(select).val(option.value).trigger('change');
    }

    function pickCategory(name) {
        const wanted = name.trim().toLowerCase();
        for (const box of document.querySelectorAll('#categorychecklist input[type="checkbox"]')) {
            const label = box.closest('label');
            if (label && label.textContent.trim().toLowerCase() === wanted) {
                box.checked = true;
                fire(box);
                return;
            }
        }
    }

    async function fillEmbeds(embeds) {
        const container = document.querySelector('#embed-video .rwmb-tab-panel-input-version .rwmb-input');
        if (!container) return;
        const live = await rows(container, embeds.length);
        embeds.forEach((embed, i) => {
            if (!live[i]) return;
            setValue(live[i].querySelector('input[name*="ab_hostname"]'), embed.hostname);
            setValue(live[i].querySelector('textarea[name*="ab_embed"]'), embed.embed);
        });
    }

    async function fillDownloads(downloads) {
        const outer = document.querySelector('#episode-download .rwmb-meta-box > .rwmb-field > .rwmb-input');
        const episode = outer && outer.querySelector(LIVE);
        if (!episode) return;
        setValue(episode.querySelector('input[name*="ab_eptitle_ep"]'), downloads.episodeTitle);

        const tiers = episode.querySelector('.rwmb-group-collapsible > .rwmb-input');
        if (!tiers) return;
        const tierRows = await rows(tiers, downloads.resolutions.length);
        for (let r = 0; r < downloads.resolutions.length; r++) {
            const tier = downloads.resolutions[r];
            if (!tierRows[r]) break;
            setValue(tierRows[r].querySelector('select[name*="ab_pixel_ep"]'), tier.pixel);

            const links = tierRows[r].querySelector('.rwmb-group-wrapper:not(.rwmb-group-collapsible) > .rwmb-input');
            if (!links) continue;
            const linkRows = await rows(links, tier.links.length);
            tier.links.forEach((link, l) => {
                if (!linkRows[l]) return;
                setValue(linkRows[l].querySelector('select[name*="ab_hostingname_ep"]'), link.hosting);
                setValue(linkRows[l].querySelector('input[name*="ab_linkurl_ep"]'), link.url);
            });
        }
    }

    console.log('quickfill:', data.title);
    setValue(document.getElementById('title'), data.titleSuffix ? data.title + ' ' + data.titleSuffix : data.title);
    await sleep(DELAY);
    pickSeries(data.seriesName);
    pickCategory(data.seriesName);
    await sleep(DELAY);
    setValue(document.getElementById('ero_episodebaru'), data.episodeNumber);
    setValue(document.getElementById('ero_subepisode'), data.subbed);
    await sleep(DELAY);
    if (data.embeds.length > 0) await fillEmbeds(data.embeds);
    await sleep(DELAY);
    if (data.downloads.resolutions.length > 0) await fillDownloads(data.downloads);
    console.log('quickfill done, review and publish');
})(EPISODE_DATA);
`
